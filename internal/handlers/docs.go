package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func queryParam(name, description, typ string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      map[string]string{"type": typ},
	}
}

func yearPathParam() map[string]interface{} {
	return map[string]interface{}{
		"name":        "year",
		"in":          "path",
		"description": "Published Gregorian year",
		"required":    true,
		"schema":      map[string]string{"type": "integer"},
	}
}

func jsonResponses(description string, extra ...string) map[string]interface{} {
	responses := map[string]interface{}{
		"200": map[string]interface{}{
			"description": description,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]string{"type": "object"},
				},
			},
		},
	}
	for _, code := range extra {
		status, _ := strconv.Atoi(code)
		responses[code] = map[string]interface{}{
			"description": http.StatusText(status),
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]string{"$ref": "#/components/schemas/Error"},
				},
			},
		}
	}
	return responses
}

func getOperation(summary, description string, params []map[string]interface{}, responses map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     summary,
		"description": description,
		"responses":   responses,
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return map[string]interface{}{"get": op}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the BPIH API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       apiTitle,
			"description": "Historical analysis and forecasting of Indonesian hajj costs (BPIH) from presidential decree figures",
			"version":     apiVersion,
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/costs": getOperation("List published costs",
				"Every published year with its regional costs and national average",
				nil, jsonResponses("Published cost records")),
			"/api/costs/{year}": getOperation("Get one published year", "",
				[]map[string]interface{}{yearPathParam()}, jsonResponses("Cost record", "400", "404")),
			"/api/growth": getOperation("Growth analysis",
				"Year-over-year rates, anomaly split, CAGR and the pre-anomaly trend",
				nil, jsonResponses("Growth summary")),
			"/api/forecast": getOperation("Scenario forecast",
				"Conservative, realistic and optimistic projections plus the external-signal variant",
				[]map[string]interface{}{
					queryParam("years", "Years ahead (default 5)", "integer"),
					queryParam("gold", "Gold price override in USD per ounce", "number"),
					queryParam("rate", "USD/IDR exchange rate override", "number"),
				}, jsonResponses("Scenario forecast", "400")),
			"/api/forecast/monthly": getOperation("Monthly scenario forecast", "",
				[]map[string]interface{}{queryParam("months", "Months ahead (default 12)", "integer")},
				jsonResponses("Monthly scenario sets", "400")),
			"/api/forecast/ensemble": getOperation("Ensemble forecast",
				"Polynomial fit blended with compounding bounds",
				[]map[string]interface{}{queryParam("years", "Years ahead (default 5)", "integer")},
				jsonResponses("Ensemble points", "400")),
			"/api/regional/{year}": getOperation("Regional comparison",
				"Each embarkation region against the national average",
				[]map[string]interface{}{yearPathParam()}, jsonResponses("Regional differences", "400", "404")),
			"/api/breakdown": getOperation("Cost breakdown",
				"Component allocation of a published or projected year",
				[]map[string]interface{}{queryParam("year", "Target year (default: year after the latest)", "integer")},
				jsonResponses("Component breakdown", "400", "404")),
			"/api/risks":   getOperation("Risk factors", "", nil, jsonResponses("Qualitative risk factors")),
			"/api/summary": getOperation("Headline numbers", "", nil, jsonResponses("Overview")),
			"/api/context": getOperation("Advisor context",
				"The context block assembled for a free-text question",
				[]map[string]interface{}{queryParam("q", "Question text", "string")},
				jsonResponses("Context block")),
			"/api/ask": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Ask the advisor",
					"description": "Answers a question using the assembled context; falls back to an offline answer",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"question": map[string]string{"type": "string"},
										"format":   map[string]interface{}{"type": "string", "enum": []string{"markdown", "html"}},
									},
									"required": []string{"question"},
								},
							},
						},
					},
					"responses": jsonResponses("Advisor answer", "400", "429"),
				},
			},
			"/health": getOperation("Health check", "Check if the API and its dataset source are up",
				nil, jsonResponses("API is healthy", "503")),
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":      map[string]string{"type": "string"},
						"message":    map[string]string{"type": "string"},
						"code":       map[string]string{"type": "integer"},
						"request_id": map[string]string{"type": "string"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

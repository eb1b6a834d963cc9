package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

// Documentation routes
const (
	DocsPath    = "/api/docs"
	OpenAPIPath = DocsPath + "/openapi.json"
)

const (
	apiTitle   = "BPIH Forecast API"
	apiVersion = "1.0.0"
	// swaggerAssets is the pinned swagger-ui-dist release served from unpkg
	swaggerAssets = "https://unpkg.com/swagger-ui-dist@5.10.0"
)

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}} Documentation</title>
    <link rel="stylesheet" type="text/css" href="{{.Assets}}/swagger-ui.css">
    <style>body { margin: 0; }</style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="{{.Assets}}/swagger-ui-bundle.js"></script>
    <script src="{{.Assets}}/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: "#swagger-ui",
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
                layout: "StandaloneLayout"
            });
        };
    </script>
</body>
</html>`))

type swaggerData struct {
	Title   string
	Assets  string
	SpecURL string
}

// SwaggerUI serves the interactive documentation page for OpenAPIPath
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := swaggerPage.Execute(w, swaggerData{Title: apiTitle, Assets: swaggerAssets, SpecURL: OpenAPIPath}); err != nil {
		http.Error(w, "failed to render documentation", http.StatusInternalServerError)
	}
}

// RegisterDocs mounts the Swagger UI page and the OpenAPI document
func RegisterDocs(router *mux.Router) {
	router.HandleFunc(DocsPath, SwaggerUI).Methods("GET")
	router.HandleFunc(OpenAPIPath, OpenAPISpec).Methods("GET")
}

package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const goldSymbol = "OANDA:XAU_USD"

// LiveConfig configures the HTTP-backed provider
type LiveConfig struct {
	FinnhubBaseURL string
	FinnhubAPIKey  string
	FixerBaseURL   string
	FixerAPIKey    string
	Timeout        time.Duration
}

// LiveProvider reads gold quotes from Finnhub and exchange rates from Fixer
type LiveProvider struct {
	cfg    LiveConfig
	client *http.Client
}

func NewLiveProvider(cfg LiveConfig) *LiveProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LiveProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
}

// GoldPrice fetches the current XAU/USD quote
func (p *LiveProvider) GoldPrice(ctx context.Context) (Quote, error) {
	if p.cfg.FinnhubAPIKey == "" {
		return Quote{}, &UnavailableError{Signal: "gold", Reason: "no API key configured"}
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s", strings.TrimRight(p.cfg.FinnhubBaseURL, "/"), url.QueryEscape(goldSymbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, &UnavailableError{Signal: "gold", Reason: "build request", Err: err}
	}
	req.Header.Set("X-Finnhub-Token", p.cfg.FinnhubAPIKey)

	var body finnhubQuote
	if err := p.getJSON(req, &body); err != nil {
		return Quote{}, &UnavailableError{Signal: "gold", Reason: "finnhub request", Err: err}
	}
	if body.Current <= 0 {
		return Quote{}, &UnavailableError{Signal: "gold", Reason: "finnhub returned no price"}
	}

	return Quote{
		Price:         body.Current,
		Change:        body.Change,
		ChangePercent: body.ChangePercent,
		High:          body.High,
		Low:           body.Low,
		Open:          body.Open,
		Source:        "finnhub",
		FetchedAt:     time.Now().UTC(),
	}, nil
}

type fixerLatest struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// ExchangeRate fetches the latest base→target rate
func (p *LiveProvider) ExchangeRate(ctx context.Context, base, target string) (float64, error) {
	if p.cfg.FixerAPIKey == "" {
		return 0, &UnavailableError{Signal: "exchange_rate", Reason: "no API key configured"}
	}

	q := url.Values{}
	q.Set("access_key", p.cfg.FixerAPIKey)
	q.Set("base", base)
	q.Set("symbols", target)
	endpoint := strings.TrimRight(p.cfg.FixerBaseURL, "/") + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, &UnavailableError{Signal: "exchange_rate", Reason: "build request", Err: err}
	}

	var body fixerLatest
	if err := p.getJSON(req, &body); err != nil {
		return 0, &UnavailableError{Signal: "exchange_rate", Reason: "fixer request", Err: err}
	}
	if !body.Success {
		reason := "fixer reported failure"
		if body.Error != nil {
			reason = fmt.Sprintf("fixer error %d: %s", body.Error.Code, body.Error.Info)
		}
		return 0, &UnavailableError{Signal: "exchange_rate", Reason: reason}
	}

	rate, ok := body.Rates[target]
	if !ok || rate <= 0 {
		return 0, &UnavailableError{Signal: "exchange_rate", Reason: fmt.Sprintf("no %s rate in response", target)}
	}
	return rate, nil
}

func (p *LiveProvider) getJSON(req *http.Request, dst interface{}) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

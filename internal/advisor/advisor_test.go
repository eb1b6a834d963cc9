package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/dataset"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("  Berapa biaya 2026? ", "KONTEKS\n")
	assert.Contains(t, got, "Konteks:\nKONTEKS\n")
	assert.Contains(t, got, "Pertanyaan: Berapa biaya 2026?\n")
	assert.Contains(t, got, "konsultan haji")
}

func TestOpenRouterAdvisor(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Jawaban"}}]}`))
	}))
	defer srv.Close()

	a, err := NewOpenRouterAdvisor(OpenRouterConfig{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second})
	require.NoError(t, err)

	got, err := a.Respond(context.Background(), "Prediksi 2026", "ctx")
	require.NoError(t, err)
	assert.Equal(t, "Jawaban", got)

	assert.Equal(t, DefaultOpenRouterModel, captured.Model)
	assert.Equal(t, 1000, captured.MaxTokens)
	assert.Equal(t, 0.7, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[1].Content, "Prediksi 2026")
}

func TestOpenRouterAdvisor_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, true},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, false},
		{"empty choices", http.StatusOK, `{"choices":[]}`, true},
		{"error body", http.StatusOK, `{"error":{"message":"model overloaded"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, err := NewOpenRouterAdvisor(OpenRouterConfig{BaseURL: srv.URL, APIKey: "key"})
			require.NoError(t, err)

			_, err = a.Respond(context.Background(), "q", "c")
			var callErr *CallError
			require.True(t, errors.As(err, &callErr))
			assert.Equal(t, "openrouter", callErr.Provider)
			assert.Equal(t, tt.transient, callErr.IsTransient())
		})
	}
}

func TestNewAdvisors_RequireKeys(t *testing.T) {
	_, err := NewOpenRouterAdvisor(OpenRouterConfig{})
	assert.Error(t, err)

	_, err = NewGeminiAdvisor(context.Background(), "", "")
	assert.Error(t, err)
}

func TestMockAdvisor(t *testing.T) {
	summary, err := analysis.NewAnalyzer().Summarize(dataset.Default())
	require.NoError(t, err)

	m := NewMockAdvisor(summary)
	first, err := m.Respond(context.Background(), "Berapa biaya tahun depan?", "")
	require.NoError(t, err)
	second, err := m.Respond(context.Background(), "Berapa biaya tahun depan?", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Berapa biaya tahun depan?")
	assert.Contains(t, first, "Biaya haji 2025: rata-rata nasional Rp 88.5 juta")
	assert.Contains(t, first, "Estimasi 2026")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("```markdown\n**Analisis**\n\n- satu\n```")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Analisis</strong>")
	assert.Contains(t, html, "<li>satu</li>")
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "# Hi", CleanMarkdown("```\n# Hi\n```"))
	assert.Equal(t, "plain", CleanMarkdown("  plain  "))
	assert.Equal(t, "```", CleanMarkdown("```"))
}

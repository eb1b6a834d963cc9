package advisor

import (
	"context"
	"fmt"
	"strings"
)

// Advisor answers a free-text question given an assembled context block
type Advisor interface {
	Name() string
	Respond(ctx context.Context, question, contextBlock string) (string, error)
}

// SystemPrompt frames every completion
const SystemPrompt = "Anda adalah ahli ekonomi syariah dan konsultan haji yang berpengalaman dalam analisis biaya dan prediksi finansial."

const instruction = "Sebagai ahli ekonomi syariah dan konsultan haji, berikan analisis yang komprehensif dan prediksi yang akurat berdasarkan data yang tersedia. Sertakan faktor-faktor ekonomi yang mempengaruhi biaya haji."

// BuildPrompt combines the retrieved context with the question
func BuildPrompt(question, contextBlock string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Konteks:\n%s\n\n", strings.TrimSpace(contextBlock))
	fmt.Fprintf(&sb, "Pertanyaan: %s\n\n", strings.TrimSpace(question))
	sb.WriteString(instruction)
	return sb.String()
}

// CallError is returned when a remote completion fails
type CallError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether retrying later may succeed
func (e *CallError) IsTransient() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

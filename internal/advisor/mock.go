package advisor

import (
	"context"
	"fmt"
	"strings"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/forecast"
)

// MockAdvisor produces a deterministic offline answer from the analyzer's numbers
type MockAdvisor struct {
	summary analysis.GrowthSummary
}

func NewMockAdvisor(summary analysis.GrowthSummary) *MockAdvisor {
	return &MockAdvisor{summary: summary}
}

func (m *MockAdvisor) Name() string {
	return "mock"
}

func (m *MockAdvisor) Respond(_ context.Context, question, _ string) (string, error) {
	s := m.summary
	next := s.CurrentCost * (1 + s.AverageNormal)

	var sb strings.Builder
	sb.WriteString("**Analisis (Mode Demo)**\n\n")
	fmt.Fprintf(&sb, "Berdasarkan pertanyaan Anda: \"%s\"\n\n", strings.TrimSpace(question))

	sb.WriteString("**Analisis:**\n")
	fmt.Fprintf(&sb, "- Biaya haji %d: rata-rata nasional Rp %.1f juta per jamaah\n", s.CurrentYear, s.CurrentCost/1e6)
	fmt.Fprintf(&sb, "- Pertumbuhan normal rata-rata %.2f%% per tahun (median %.2f%%)\n", s.AverageNormal*100, s.MedianNormal*100)
	fmt.Fprintf(&sb, "- CAGR keseluruhan %.1f%% per tahun, termasuk lonjakan satu kali\n\n", s.OverallCAGR)

	sb.WriteString("**Prediksi:**\n")
	fmt.Fprintf(&sb, "- Estimasi %d: Rp %.1f juta (skenario realistis)\n", s.CurrentYear+1, next/1e6)
	fmt.Fprintf(&sb, "- Rentang: %.0f%% hingga %.0f%% dari laju realistis\n\n",
		forecast.ConservativeGrowthFactor*100, forecast.OptimisticGrowthFactor*100)

	sb.WriteString("**Rekomendasi:**\n")
	sb.WriteString("- Mulai menabung sedini mungkin\n")
	sb.WriteString("- Perhatikan nilai tukar USD/IDR dan harga emas\n")
	sb.WriteString("- Monitor kebijakan biaya dari pemerintah Saudi Arabia\n\n")

	sb.WriteString("*Catatan: ini adalah respons demo tanpa model bahasa.*\n")
	return sb.String(), nil
}

package knowledge

import (
	"fmt"
	"strings"

	"bpih-platform/internal/breakdown"
	"bpih-platform/internal/models"
)

// Rule is one context section: it is rendered when Match accepts the
// lower-cased query.
type Rule struct {
	Name   string
	Match  func(query string) bool
	Render func(b *Base) string
}

// Keywords matches when any keyword is a substring of the query
func Keywords(words ...string) func(string) bool {
	return func(query string) bool {
		for _, w := range words {
			if strings.Contains(query, w) {
				return true
			}
		}
		return false
	}
}

// DefaultRules returns the rule table in rendering order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "historical",
			Match:  Keywords("trend", "historis", "naik", "turun", "pertumbuhan", "perubahan", "data", "history", "growth"),
			Render: renderHistorical,
		},
		{
			Name:   "surge",
			Match:  Keywords("2023", "covid", "lonjakan", "naik", "tinggi", "ekstrem", "surge"),
			Render: renderSurge,
		},
		{
			Name: "regional",
			Match: Keywords("jakarta", "surabaya", "medan", "aceh", "makassar", "embarkasi",
				"regional", "beda", "murah", "mahal"),
			Render: renderRegional,
		},
		{
			Name:   "components",
			Match:  Keywords("komponen", "terdiri", "biaya", "apa saja", "termasuk", "bagian", "breakdown"),
			Render: renderComponents,
		},
		{
			Name:   "factors",
			Match:  Keywords("faktor", "penyebab", "kenapa", "mengapa", "pengaruh", "dampak"),
			Render: renderFactors,
		},
		{
			Name:   "prediction",
			Match:  Keywords("prediksi", "masa depan", "akan", "tahun depan", "estimasi", "proyeksi", "forecast"),
			Render: renderPrediction,
		},
	}
}

func renderHistorical(b *Base) string {
	var sb strings.Builder
	sb.WriteString("DATA HISTORIS BIAYA HAJI (RATA-RATA NASIONAL):\n")
	for _, r := range b.Records {
		fmt.Fprintf(&sb, "- %d (%s): %s\n", r.Year, r.HijriLabel, FormatRupiah(r.NationalAverage))
	}

	s := b.Summary
	sb.WriteString("\nANALISIS PERTUMBUHAN:\n")
	if len(s.NormalRates) > 0 {
		lo, hi := s.NormalRates[0].Rate, s.NormalRates[0].Rate
		for _, r := range s.NormalRates {
			lo = min(lo, r.Rate)
			hi = max(hi, r.Rate)
		}
		fmt.Fprintf(&sb, "- Periode normal: pertumbuhan %s hingga %s per tahun (rata-rata %s)\n",
			percent(lo), percent(hi), percent(s.AverageNormal))
	}
	if b.Surge != nil {
		fmt.Fprintf(&sb, "- Lonjakan %d: %s dari %s ke %s\n", b.Surge.ToYear, percent(b.Surge.Rate),
			FormatMillions(b.Cost(b.Surge.FromYear)), FormatMillions(b.Cost(b.Surge.ToYear)))
	}
	if n := len(s.Series.Rates); n > 0 {
		last := s.Series.Rates[n-1]
		fmt.Fprintf(&sb, "- Perubahan terakhir %d-%d: %s ke %s\n", last.FromYear, last.ToYear,
			percent(last.Rate), FormatMillions(b.Cost(last.ToYear)))
	}
	fmt.Fprintf(&sb, "- CAGR periode normal: %.1f%% per tahun\n", s.NormalPeriodCAGR)
	fmt.Fprintf(&sb, "- CAGR keseluruhan: %.1f%% per tahun\n\n", s.OverallCAGR)
	return sb.String()
}

func renderSurge(b *Base) string {
	if b.Surge == nil {
		return "ANALISIS LONJAKAN:\n- Tidak ada perubahan tahunan yang tergolong anomali\n\n"
	}
	from, to := b.Cost(b.Surge.FromYear), b.Cost(b.Surge.ToYear)

	var sb strings.Builder
	fmt.Fprintf(&sb, "ANALISIS LONJAKAN %d:\n", b.Surge.ToYear)
	fmt.Fprintf(&sb, "- Kenaikan dari %s (%d) menjadi %s (%d)\n", FormatMillions(from), b.Surge.FromYear, FormatMillions(to), b.Surge.ToYear)
	fmt.Fprintf(&sb, "- Persentase kenaikan: %s dalam 1 periode\n", percent(b.Surge.Rate))
	sb.WriteString("- Faktor: akumulasi inflasi pasca-COVID, peningkatan standar layanan\n")
	sb.WriteString("- Status: anomali satu kali, bukan trend permanen\n\n")
	return sb.String()
}

func renderRegional(b *Base) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PERBANDINGAN REGIONAL (%d):\n", b.Latest.Year)
	for _, d := range b.Regional {
		fmt.Fprintf(&sb, "- %s: %s (%+.1f%% vs rata-rata) %s\n",
			titleCase(string(d.Region)), FormatRupiah(d.Cost), d.DifferencePercentage, categoryLabel(d.Category))
	}
	sb.WriteString("\n")
	return sb.String()
}

var componentNotes = map[breakdown.Component]string{
	breakdown.ComponentFlight:         "Tiket pesawat Indonesia-Jeddah PP",
	breakdown.ComponentMakkahLodging:  "Hotel/pemondokan di Makkah",
	breakdown.ComponentMadinahLodging: "Hotel/pemondokan di Madinah",
	breakdown.ComponentLivingCost:     "Living cost selama di Arab Saudi",
	breakdown.ComponentServices:       "Bimbingan, pendampingan, dan layanan lainnya",
	breakdown.ComponentLocalTransport: "Bus dan transport dalam kota di Saudi",
	breakdown.ComponentAdministration: "Biaya pengelolaan, visa, dan administrasi",
}

func renderComponents(b *Base) string {
	var sb strings.Builder
	sb.WriteString("KOMPONEN BIAYA HAJI:\n")
	for _, s := range b.Shares {
		note := componentNotes[s.Component]
		if note == "" {
			note = string(s.Component)
		}
		fmt.Fprintf(&sb, "- %s: %s (%.0f%% dari total)\n", titleCase(string(s.Component)), note, s.Share*100)
	}
	sb.WriteString("\n")
	return sb.String()
}

var increaseFactors = []struct{ name, note string }{
	{"Inflasi Saudi", "Inflasi di Arab Saudi mempengaruhi biaya akomodasi dan layanan"},
	{"Nilai Tukar", "Fluktuasi SAR/IDR dan USD/IDR sangat berpengaruh"},
	{"Harga Minyak", "Mempengaruhi ekonomi Saudi dan biaya operasional"},
	{"Kapasitas Hotel", "Supply-demand akomodasi di Makkah-Madinah"},
	{"Kebijakan Saudi", "Perubahan regulasi dan tarif pemerintah Saudi Arabia"},
	{"Dampak Covid", "Dampak pandemi pada biaya operasional dan standar kesehatan"},
	{"Kualitas Layanan", "Peningkatan standar pelayanan haji"},
}

func renderFactors(_ *Base) string {
	var sb strings.Builder
	sb.WriteString("FAKTOR-FAKTOR KENAIKAN BIAYA:\n")
	for _, f := range increaseFactors {
		fmt.Fprintf(&sb, "- %s: %s\n", f.name, f.note)
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderPrediction(b *Base) string {
	s := b.Summary
	var sb strings.Builder
	sb.WriteString("BASIS PREDIKSI:\n")
	fmt.Fprintf(&sb, "- Trend normal: %s per tahun (rata-rata periode normal, median %s)\n",
		percent(s.AverageNormal), percent(s.MedianNormal))
	if b.Surge != nil {
		fmt.Fprintf(&sb, "- Anomali %d: tidak dipakai sebagai laju pertumbuhan\n", b.Surge.ToYear)
	}
	fmt.Fprintf(&sb, "- Basis: %s (%d)\n", FormatRupiah(s.CurrentCost), s.CurrentYear)
	sb.WriteString("- Faktor risiko: inflasi global, kebijakan Saudi, nilai tukar\n")
	sb.WriteString("- Metodologi: skenario pertumbuhan + regresi polinomial + faktor ekonomi\n\n")
	return sb.String()
}

// insight is rendered when any of its tokens appears in the query
type insight struct {
	tokens []string
	render func(b *Base) string
}

var insights = []insight{
	{
		tokens: []string{"lonjakan", "2023"},
		render: func(b *Base) string {
			if b.Surge == nil {
				return ""
			}
			return fmt.Sprintf("Kenaikan drastis dari %s (%d) ke %s (%d) = %s",
				FormatMillions(b.Cost(b.Surge.FromYear)), b.Surge.FromYear,
				FormatMillions(b.Cost(b.Surge.ToYear)), b.Surge.ToYear, percent(b.Surge.Rate))
		},
	},
	{
		tokens: []string{"stabilisasi", "2025"},
		render: func(b *Base) string {
			rates := b.Summary.Series.Rates
			if len(rates) == 0 {
				return ""
			}
			last := rates[len(rates)-1]
			return fmt.Sprintf("Perubahan %d ke %s (%s) menunjukkan normalisasi pasca-lonjakan",
				last.ToYear, FormatMillions(b.Cost(last.ToYear)), percent(last.Rate))
		},
	},
	{
		tokens: []string{"perbedaan", "regional"},
		render: func(b *Base) string {
			p := b.Priciest()
			c := b.Cheapest()
			return fmt.Sprintf("Selisih embarkasi termahal dan termurah %d: %.1f poin persen",
				b.Latest.Year, p.DifferencePercentage-c.DifferencePercentage)
		},
	},
	{
		tokens: []string{"embarkasi", "termurah"},
		render: func(b *Base) string {
			c := b.Cheapest()
			return fmt.Sprintf("%s adalah embarkasi termurah (%+.1f%%)", titleCase(string(c.Region)), c.DifferencePercentage)
		},
	},
	{
		tokens: []string{"embarkasi", "termahal"},
		render: func(b *Base) string {
			p := b.Priciest()
			return fmt.Sprintf("%s adalah embarkasi termahal (%+.1f%%)", titleCase(string(p.Region)), p.DifferencePercentage)
		},
	},
	{
		tokens: []string{"trend", "prediksi"},
		render: func(b *Base) string {
			return fmt.Sprintf("Prediksi kembali ke growth normal sekitar %s per tahun", percent(b.Summary.AverageNormal))
		},
	},
}

// insightMinQueryLength is the query length above which insights are considered
const insightMinQueryLength = 10

func renderInsights(b *Base, query string) string {
	var sb strings.Builder
	sb.WriteString("INSIGHT KHUSUS:\n")
	for _, in := range insights {
		if !Keywords(in.tokens...)(query) {
			continue
		}
		if line := in.render(b); line != "" {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func categoryLabel(c models.Category) string {
	switch c {
	case models.CategoryExpensive:
		return "Mahal"
	case models.CategoryCheap:
		return "Murah"
	default:
		return "Normal"
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package knowledge

import (
	"fmt"
	"strings"
)

const contextHeader = "=== KONTEKS BIAYA HAJI INDONESIA (DATA RESMI KEPPRES) ===\n\n"

// Retriever assembles the context block handed to the advisor
type Retriever struct {
	base  *Base
	rules []Rule
}

// NewRetriever uses DefaultRules when rules is nil
func NewRetriever(base *Base, rules []Rule) *Retriever {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Retriever{base: base, rules: rules}
}

// Retrieve renders the header, every matching rule in order, the insights for
// specific queries, and the source footer
func (r *Retriever) Retrieve(query string) string {
	q := strings.ToLower(query)

	var sb strings.Builder
	sb.WriteString(contextHeader)
	for _, rule := range r.rules {
		if rule.Match(q) {
			sb.WriteString(rule.Render(r.base))
		}
	}
	if len(q) > insightMinQueryLength {
		sb.WriteString(renderInsights(r.base, q))
	}
	sb.WriteString(r.footer())
	return sb.String()
}

// MatchedRules reports which rules a query triggers
func (r *Retriever) MatchedRules(query string) []string {
	q := strings.ToLower(query)
	var names []string
	for _, rule := range r.rules {
		if rule.Match(q) {
			names = append(names, rule.Name)
		}
	}
	return names
}

func (r *Retriever) footer() string {
	records := r.base.Records
	if len(records) == 0 {
		return "SUMBER: Keputusan Presiden RI\n"
	}
	return fmt.Sprintf("SUMBER: Data resmi dari %d Keputusan Presiden RI (%d-%d)\n",
		len(records), records[0].Year, records[len(records)-1].Year)
}

package risk

// Factor is a qualitative risk that can move future costs away from the projection
type Factor struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	// High marks the factors the dashboard lists as high-impact
	High bool `json:"high"`
}

var factors = []Factor{
	{Key: "global_inflation", Description: "Unexpected global inflation can shift the projection", High: true},
	{Key: "saudi_policy", Description: "Changes in Saudi Arabian government regulation or tariffs", High: true},
	{Key: "exchange_rate", Description: "Sharp swings in SAR/IDR or USD/IDR", High: true},
	{Key: "hajj_capacity", Description: "Changes to hajj quota or infrastructure in Saudi Arabia"},
	{Key: "indonesian_economy", Description: "Domestic economic conditions affecting purchasing power"},
	{Key: "geopolitics", Description: "Regional geopolitical situation affecting operating costs", High: true},
	{Key: "technology", Description: "Adoption of new technology that may raise or lower costs"},
	{Key: "pandemic", Description: "Pandemic or other global health crisis"},
}

// ListFactors returns the catalog in its fixed order. Callers get their own copy.
func ListFactors() []Factor {
	out := make([]Factor, len(factors))
	copy(out, factors)
	return out
}

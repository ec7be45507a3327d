package web

// Variant selects which dashboard tabs are offered
type Variant string

const (
	VariantBasic      Variant = "basic"
	VariantAnalytics  Variant = "analytics"
	VariantComparison Variant = "comparison"
)

// Tab identifiers, as used in ?tab=
const (
	TabPrediction = "prediksi"
	TabStatistics = "statistik"
	TabFactors    = "faktor"
	TabComparison = "perbandingan"
)

type tab struct {
	ID    string
	Label string
}

var allTabs = []tab{
	{ID: TabPrediction, Label: "Prediksi & Rekomendasi"},
	{ID: TabStatistics, Label: "Statistik Deskriptif"},
	{ID: TabFactors, Label: "Faktor Berpengaruh"},
	{ID: TabComparison, Label: "Perbandingan Model"},
}

func (v Variant) Valid() bool {
	switch v {
	case VariantBasic, VariantAnalytics, VariantComparison:
		return true
	}
	return false
}

// Tabs returns the tabs the variant offers, in display order
func (v Variant) Tabs() []tab {
	switch v {
	case VariantBasic:
		return allTabs[:1]
	case VariantAnalytics:
		return allTabs[:3]
	default:
		return allTabs
	}
}

// Resolve returns id when the variant offers it, otherwise the prediction tab
func (v Variant) Resolve(id string) string {
	for _, t := range v.Tabs() {
		if t.ID == id {
			return id
		}
	}
	return TabPrediction
}

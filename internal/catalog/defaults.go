package catalog

import "github.com/verdantlabs/leafsight/internal/domain"

// Defaults returns the built-in banana disease catalog, used when no
// catalog file is configured or as the base before the first reload.
func Defaults() []*Disease {
	return []*Disease{
		{
			Name:           "Sigatoka Leaf Spot",
			ScientificName: "Mycosphaerella musicola",
			Severity:       domain.SeverityMedium,
			Description:    "Yellow Sigatoka is a leaf spot disease of banana plants caused by the ascomycete fungus Mycosphaerella musicola.",
			Treatments: []string{
				"Apply fungicides containing mancozeb or propiconazole.",
				"Remove infected leaves and destroy them.",
				"Ensure good drainage in the plantation.",
				"Maintain adequate spacing between plants.",
			},
			PreventionTips: []string{
				"Use resistant varieties when available.",
				"Implement proper sanitation practices.",
				"Apply preventive fungicide sprays during wet seasons.",
				"Ensure balanced nutrition for plants.",
			},
		},
		{
			Name:           "Black Sigatoka",
			ScientificName: "Mycosphaerella fijiensis",
			Severity:       domain.SeverityHigh,
			Description:    "Black Sigatoka is a leaf-spot disease of banana plants caused by the ascomycete fungus Mycosphaerella fijiensis.",
			Treatments: []string{
				"Apply fungicide treatments with products containing chlorothalonil, mancozeb, or propiconazole.",
				"Remove and destroy infected leaves to reduce the spread of spores.",
				"Improve drainage in the plantation to reduce humidity and leaf wetness.",
				"Maintain proper spacing between plants to improve air circulation.",
			},
			PreventionTips: []string{
				"Implement a regular fungicide spray program during rainy seasons.",
				"Use disease-resistant banana varieties when available.",
				"Ensure proper nutrition with balanced fertilization.",
				"Monitor plants regularly for early signs of infection.",
			},
		},
		{
			Name:           "Panama Disease",
			ScientificName: "Fusarium oxysporum f.sp. cubense",
			Severity:       domain.SeverityHigh,
			Description:    "Panama disease is a plant disease that affects bananas and is caused by the fungus Fusarium oxysporum f. sp. cubense.",
			Treatments: []string{
				"There is no effective chemical treatment for Panama disease.",
				"Remove and destroy infected plants, including roots.",
				"Quarantine affected areas to prevent spread.",
				"Disinfect tools and equipment used in affected areas.",
			},
			PreventionTips: []string{
				"Use resistant varieties like Cavendish for Fusarium Race 1.",
				"Implement strict biosecurity measures.",
				"Avoid planting in previously infected soil.",
				"Use disease-free planting material.",
			},
		},
		{
			Name:           "Banana Bunchy Top",
			ScientificName: "Banana bunchy top virus (BBTV)",
			Severity:       domain.SeverityHigh,
			Description:    "Banana bunchy top is a viral disease that affects banana plants, causing stunted growth and reduced fruit production.",
			Treatments: []string{
				"There is no cure for infected plants. Remove and destroy infected plants immediately.",
				"Control aphid vectors with appropriate insecticides.",
				"Create barriers between infected and healthy plants.",
				"Use virus-free planting material.",
			},
			PreventionTips: []string{
				"Use certified disease-free planting material.",
				"Regularly monitor for aphids and early symptoms.",
				"Maintain field hygiene and quarantine measures.",
				"Implement aphid control strategies.",
			},
		},
	}
}

// GenericPreventionTips is served when a detected disease has no
// catalog entry with its own prevention guidance.
var GenericPreventionTips = []string{
	"Implement a regular fungicide spray program during rainy seasons.",
	"Use disease-resistant banana varieties when available.",
	"Ensure proper nutrition with balanced fertilization.",
	"Monitor plants regularly for early signs of infection.",
}

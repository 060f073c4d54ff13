package domain

// Severity classifies how aggressive a detected disease is.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Provenance records where a detection came from.
type Provenance string

const (
	// ProvenanceMatched means the detection came from a real model match.
	ProvenanceMatched Provenance = "matched"
	// ProvenanceFallback means the detection was substituted from the
	// built-in catalog because no real match was produced.
	ProvenanceFallback Provenance = "fallback"
)

// Detection is the immutable outcome of analyzing one image.
// It is produced exactly once per job and never mutated afterwards.
type Detection struct {
	// Name is the common disease name.
	// Example: "Black Sigatoka"
	Name string `json:"label"`

	// ScientificName is the binomial name of the pathogen.
	// Example: "Mycosphaerella fijiensis"
	ScientificName string `json:"scientificName"`

	// Confidence is the model confidence in [0.0, 1.0].
	Confidence float64 `json:"confidence"`

	Severity    Severity `json:"severity"`
	Description string   `json:"description"`

	// Treatments is an ordered list of recommended actions.
	Treatments []string `json:"treatments"`

	// Provenance distinguishes a genuine match from a fallback pick.
	Provenance Provenance `json:"source"`
}

// ConfidencePercent returns the confidence as an integer in [0, 100],
// the representation pushed over the persistent channel.
func (d Detection) ConfidencePercent() int {
	p := int(d.Confidence*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

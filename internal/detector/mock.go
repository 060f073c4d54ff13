package detector

import (
	"context"
	"math/rand"
	"time"

	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/domain"
)

// Mock is the placeholder provider: it waits a randomized latency and
// picks a random disease from the catalog. No real model is involved,
// every result carries fallback provenance.
type Mock struct {
	catalog    *catalog.Catalog
	minLatency time.Duration
	maxLatency time.Duration
}

// NewMock creates a mock provider. Latency bounds control how long a
// detection appears to take; maxLatency must be >= minLatency.
func NewMock(cat *catalog.Catalog, minLatency, maxLatency time.Duration) *Mock {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &Mock{
		catalog:    cat,
		minLatency: minLatency,
		maxLatency: maxLatency,
	}
}

// Detect waits the simulated latency and returns a random catalog pick.
// A cancelled context shortcuts the wait but still resolves.
func (m *Mock) Detect(ctx context.Context, imageRef string) domain.Detection {
	latency := m.minLatency
	if span := m.maxLatency - m.minLatency; span > 0 {
		latency += time.Duration(rand.Int63n(int64(span)))
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	return m.pick()
}

// pick selects a random disease and wraps it as a fallback detection.
func (m *Mock) pick() domain.Detection {
	diseases := m.catalog.All()
	if len(diseases) == 0 {
		diseases = catalog.Defaults()
	}
	d := diseases[rand.Intn(len(diseases))]

	return domain.Detection{
		Name:           d.Name,
		ScientificName: d.ScientificName,
		Confidence:     0.70 + rand.Float64()*0.20,
		Severity:       d.Severity,
		Description:    d.Description,
		Treatments:     append([]string(nil), d.Treatments...),
		Provenance:     domain.ProvenanceFallback,
	}
}

// Package detector defines the pluggable detection capability used by
// the analysis orchestrator.
package detector

import (
	"context"

	"github.com/verdantlabs/leafsight/internal/domain"
)

// Provider analyzes one image reference and produces a detection.
//
// Detect always resolves: implementations must absorb any internal
// failure by substituting a fallback detection (provenance "fallback")
// instead of returning an error. Callers rely on this contract and
// perform no failure handling of their own.
type Provider interface {
	Detect(ctx context.Context, imageRef string) domain.Detection
}

package model

import (
	"fmt"
	"math"
)

// DimensionScores holds the six 0-10 quality sub-scores for a pull request.
// A composite score is only defined over a complete, in-range set; partial
// sets are invalid.
type DimensionScores struct {
	CodeQuality        float64 `json:"code_quality"`
	TestCoverage       float64 `json:"test_coverage"`
	Documentation      float64 `json:"documentation"`
	ComplianceSecurity float64 `json:"compliance_security"`
	ImpactScope        float64 `json:"impact_scope"`
	PRValue            float64 `json:"pr_value"`
}

// Validate checks that every dimension lies in [0, 10].
func (d DimensionScores) Validate() error {
	for _, dim := range []struct {
		name  string
		value float64
	}{
		{"code_quality", d.CodeQuality},
		{"test_coverage", d.TestCoverage},
		{"documentation", d.Documentation},
		{"compliance_security", d.ComplianceSecurity},
		{"impact_scope", d.ImpactScope},
		{"pr_value", d.PRValue},
	} {
		if dim.value < 0 || dim.value > 10 {
			return fmt.Errorf("%w: dimension %s=%v out of [0,10]", ErrInvalidScoringResponse, dim.name, dim.value)
		}
	}
	return nil
}

// Composite returns the 0-100 aggregate score: the mean of the six dimensions
// scaled by ten, rounded to one decimal place.
func (d DimensionScores) Composite() float64 {
	sum := d.CodeQuality + d.TestCoverage + d.Documentation +
		d.ComplianceSecurity + d.ImpactScope + d.PRValue
	return math.Round(sum/6*10*10) / 10
}

// Grade is the qualitative band for a composite score.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
)

// GradeFor maps a composite score to its band: >80 excellent, [60,80] good,
// <60 fair.
func GradeFor(composite float64) Grade {
	switch {
	case composite > 80:
		return GradeExcellent
	case composite >= 60:
		return GradeGood
	default:
		return GradeFair
	}
}

// Provenance records where a pull request's dimension scores came from.
type Provenance string

const (
	// ProvenanceAI marks scores produced by the external scoring call.
	ProvenanceAI Provenance = "ai-scored"
	// ProvenanceFallback marks scores derived from structural signals after
	// the scoring call failed or returned an invalid response.
	ProvenanceFallback Provenance = "fallback-heuristic"
)

// ScoringResult is the parsed payload of a successful scoring call.
type ScoringResult struct {
	Scores   DimensionScores
	Advisory string
}

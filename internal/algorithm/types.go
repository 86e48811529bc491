// Package algorithm models the immutable, user-supplied matching
// configuration (§4.8) and the pass evaluation / cross-pass driver logic
// that scores an incoming record against MPI candidates (§4.6, §4.7).
package algorithm

import (
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/compare"
	"mpi-linkage/internal/pii"
)

// Grade is the closed enumeration of match grades a cluster can receive.
type Grade string

const (
	GradeCertain      Grade = "certain"
	GradePossible     Grade = "possible"
	GradeCertainlyNot Grade = "certainly-not"
)

// rank orders grades for the "keep the best" merge rule in §4.7: certain
// beats possible beats certainly-not.
func (g Grade) rank() int {
	switch g {
	case GradeCertain:
		return 2
	case GradePossible:
		return 1
	default:
		return 0
	}
}

// LogOdds is one feature's configured weight.
type LogOdds struct {
	Feature pii.Feature
	Value   float64
}

// Advanced holds the global comparator tuning knobs, with spec-mandated
// defaults (0.9, JaroWinkler, 0.5, 0.5).
type Advanced struct {
	FuzzyMatchThreshold          float64
	FuzzyMatchMeasure            compare.Measure
	MaxMissingAllowedProportion  float64
	MissingFieldPointsProportion float64
}

// DefaultAdvanced returns the spec-mandated default tuning.
func DefaultAdvanced() Advanced {
	return Advanced{
		FuzzyMatchThreshold:          0.9,
		FuzzyMatchMeasure:            compare.JaroWinkler,
		MaxMissingAllowedProportion:  0.5,
		MissingFieldPointsProportion: 0.5,
	}
}

// ComparatorFunc is the closed enumeration of comparator kinds an evaluator
// can be configured with. Dynamic function-name dispatch (as in the source
// system) is replaced by this compile-time-known set.
type ComparatorFunc string

const (
	CompareProbabilisticExact ComparatorFunc = "COMPARE_PROBABILISTIC_EXACT_MATCH"
	CompareProbabilisticFuzzy ComparatorFunc = "COMPARE_PROBABILISTIC_FUZZY_MATCH"
)

// Evaluator is one feature's scoring configuration within a pass.
type Evaluator struct {
	Feature             pii.Feature
	Func                ComparatorFunc
	FuzzyMatchThreshold *float64 // per-feature override; nil falls back to Advanced.FuzzyMatchThreshold
}

// Window is the [min_rms, certain_rms] decision boundary for a pass.
type Window struct {
	MinRMS     float64
	CertainRMS float64
}

// Pass is one declared scoring pass.
type Pass struct {
	Label        string
	BlockingKeys []blocking.Key
	Evaluators   []Evaluator
	Window       Window
}

// SkipRule mirrors clean.Rule; duplicated here as the wire shape stored
// with a Config so the config package has no dependency on internal/clean.
type SkipRule struct {
	Feature pii.Feature
	Values  []string
}

// Config is one immutable, labeled algorithm configuration (§4.8).
// Algorithms are never mutated after validation; updating is a
// create-new-label operation.
type Config struct {
	Label      string
	LogOdds    []LogOdds
	SkipValues []SkipRule
	Advanced   Advanced
	Passes     []Pass
}

// logOddsIndex is a lookup built once per Config for comparator weight
// resolution.
func (c *Config) logOddsIndex() map[pii.Feature]float64 {
	idx := make(map[pii.Feature]float64, len(c.LogOdds))
	for _, lo := range c.LogOdds {
		idx[lo.Feature] = lo.Value
	}
	return idx
}

// ClusterResult is one (person, pass) scoring outcome, the Pass Evaluator's
// output unit (§4.6).
type ClusterResult struct {
	PersonID  int64
	RMS       float64
	Grade     Grade
	PassLabel string
}

// PatientCandidate is the shape the Pass Evaluator needs from the MPI
// repository for one blocked Patient: its owning cluster and its record.
type PatientCandidate struct {
	PatientID int64
	PersonID  int64
	Record    *pii.Record
}

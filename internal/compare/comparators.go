package compare

import "mpi-linkage/internal/pii"

// Result is the outcome of comparing one feature between two records: the
// log-odds points earned, the full log-odds weight the feature could have
// contributed (possible), and whether either side was missing the feature.
type Result struct {
	Points   float64
	Possible float64
	Missing  bool
}

// Comparator scores how well feature compares between a and b, given the
// evaluator's configured log-odds weight.
type Comparator interface {
	Compare(a, b *pii.Record, feature pii.Feature, weight float64, missingFieldPointsProportion float64) Result
}

// Exact is the "probabilistic exact" comparator: for features where
// fuzziness is meaningless (e.g. SEX), full weight if any value on either
// side is equal, zero otherwise.
type Exact struct{}

func (Exact) Compare(a, b *pii.Record, feature pii.Feature, weight, missingFieldPointsProportion float64) Result {
	valuesA := pii.FeatureIter(a, feature)
	valuesB := pii.FeatureIter(b, feature)

	if len(valuesA) == 0 || len(valuesB) == 0 {
		return missingResult(weight, missingFieldPointsProportion)
	}

	for _, va := range valuesA {
		for _, vb := range valuesB {
			if normalizeForCompare(va) == normalizeForCompare(vb) {
				return Result{Points: weight, Possible: weight}
			}
		}
	}
	return Result{Points: 0, Possible: weight}
}

// Fuzzy is the "probabilistic fuzzy" comparator, the default for free-text
// string features: best pairwise similarity across the two value lists,
// full weight scaled by similarity if it clears the configured threshold.
type Fuzzy struct {
	Measure   Measure
	Threshold float64
}

func (f Fuzzy) Compare(a, b *pii.Record, feature pii.Feature, weight, missingFieldPointsProportion float64) Result {
	valuesA := pii.FeatureIter(a, feature)
	valuesB := pii.FeatureIter(b, feature)

	if len(valuesA) == 0 || len(valuesB) == 0 {
		return missingResult(weight, missingFieldPointsProportion)
	}

	best := 0.0
	for _, va := range valuesA {
		for _, vb := range valuesB {
			sim := Similarity(f.Measure, normalizeForCompare(va), normalizeForCompare(vb))
			if sim > best {
				best = sim
			}
		}
	}

	if best >= f.Threshold {
		return Result{Points: weight * best, Possible: weight}
	}
	return Result{Points: 0, Possible: weight}
}

// missingResult implements the shared missing-field rule: a weight times
// missing_field_points_proportion counts toward points, the full weight
// still counts toward possible, and the contribution is flagged missing so
// the Pass Evaluator can also fold it into the cluster's missingness ratio.
func missingResult(weight, missingFieldPointsProportion float64) Result {
	return Result{
		Points:   weight * missingFieldPointsProportion,
		Possible: weight,
		Missing:  true,
	}
}

package algorithm

import (
	"sort"

	"github.com/montanaflynn/stats"

	"mpi-linkage/internal/compare"
	"mpi-linkage/internal/pii"
)

// comparatorFor resolves the Comparator implementation and fuzzy threshold
// for one evaluator, given the algorithm's global Advanced tuning.
func comparatorFor(ev Evaluator, adv Advanced) compare.Comparator {
	switch ev.Func {
	case CompareProbabilisticExact:
		return compare.Exact{}
	default:
		threshold := adv.FuzzyMatchThreshold
		if ev.FuzzyMatchThreshold != nil {
			threshold = *ev.FuzzyMatchThreshold
		}
		measure := adv.FuzzyMatchMeasure
		if measure == "" {
			measure = compare.JaroWinkler
		}
		return compare.Fuzzy{Measure: measure, Threshold: threshold}
	}
}

// patientScore is one Patient's aggregated evaluator scores within a pass.
type patientScore struct {
	patientID int64
	points    float64
	possible  float64
	missing   float64 // sum of possible weight for evaluators that were missing
}

func (c *Config) missingnessProportion(s patientScore) float64 {
	if s.possible == 0 {
		return 0
	}
	return s.missing / s.possible
}

// EvaluatePass runs one pass against the candidates MPI.Block already
// returned for this pass's blocking tuples (§4.6 steps 3-4). Candidates not
// belonging to this pass (wrong blocking tuples) must already be filtered
// out by the caller — EvaluatePass only groups, scores, and grades.
func (c *Config) EvaluatePass(pass Pass, incoming *pii.Record, candidates []PatientCandidate) []ClusterResult {
	byPerson := make(map[int64][]PatientCandidate)
	var order []int64
	for _, cand := range candidates {
		if _, seen := byPerson[cand.PersonID]; !seen {
			order = append(order, cand.PersonID)
		}
		byPerson[cand.PersonID] = append(byPerson[cand.PersonID], cand)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	sumPossible := 0.0
	logOdds := c.logOddsIndex()
	for _, ev := range pass.Evaluators {
		sumPossible += logOdds[ev.Feature]
	}

	var results []ClusterResult
	for _, personID := range order {
		members := byPerson[personID]
		scores := make([]patientScore, 0, len(members))
		for _, m := range members {
			scores = append(scores, c.scorePatient(pass, incoming, m))
		}

		var kept []patientScore
		for _, s := range scores {
			if c.missingnessProportion(s) > c.Advanced.MaxMissingAllowedProportion {
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			continue
		}

		sort.Slice(kept, func(i, j int) bool {
			if kept[i].points != kept[j].points {
				return kept[i].points < kept[j].points
			}
			return kept[i].patientID < kept[j].patientID
		})

		points := make([]float64, len(kept))
		for i, s := range kept {
			points[i] = s.points
		}
		clusterPoints, err := stats.Median(points)
		if err != nil {
			continue
		}

		rms := 0.0
		if sumPossible > 0 {
			rms = clusterPoints / sumPossible
		}

		results = append(results, ClusterResult{
			PersonID:  personID,
			RMS:       rms,
			Grade:     grade(rms, pass.Window),
			PassLabel: pass.Label,
		})
	}

	return results
}

func grade(rms float64, w Window) Grade {
	switch {
	case rms >= w.CertainRMS:
		return GradeCertain
	case rms >= w.MinRMS:
		return GradePossible
	default:
		return GradeCertainlyNot
	}
}

func (c *Config) scorePatient(pass Pass, incoming *pii.Record, candidate PatientCandidate) patientScore {
	logOdds := c.logOddsIndex()
	score := patientScore{patientID: candidate.PatientID}

	for _, ev := range pass.Evaluators {
		weight := logOdds[ev.Feature]
		cmp := comparatorFor(ev, c.Advanced)
		result := cmp.Compare(incoming, candidate.Record, ev.Feature, weight, c.Advanced.MissingFieldPointsProportion)

		score.points += result.Points
		score.possible += result.Possible
		if result.Missing {
			score.missing += result.Possible
		}
	}

	return score
}

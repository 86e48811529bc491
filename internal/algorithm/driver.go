package algorithm

import (
	"context"
	"sort"

	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

// Blocker is the subset of the MPI repository the driver needs: given a
// pass's blocking (key,value) tuples, return candidate Patients plus
// sibling Patients from the same Persons (§4.4 "block").
type Blocker interface {
	Block(ctx context.Context, tuples []blocking.Value) ([]PatientCandidate, error)
}

// Decision is the driver's final output for one incoming record (§4.7).
type Decision struct {
	Grade       Grade
	PersonID    int64 // set only for GradeCertain; 0 ("no person") for possible and certainly-not
	Attach      bool  // whether the incoming Patient should be attached to PersonID
	NewPerson   bool  // whether a brand-new Person must be minted
	Results     []ClusterResult
}

// Run executes every pass in declared order, merges per-pass cluster
// results by person_id keeping the best grade/RMS/earliest-pass, and
// applies the §4.7 final decision rule. includeMultipleMatches controls
// whether all certain clusters are returned or only the single
// highest-RMS one.
func (c *Config) Run(ctx context.Context, blocker Blocker, incoming *pii.Record, includeMultipleMatches bool) (Decision, error) {
	best := make(map[int64]ClusterResult)
	var order []int64

	for passIdx, pass := range c.Passes {
		tuples := passBlockingTuples(pass, incoming)
		if len(tuples) == 0 {
			// Required blocking field absent: this pass emits zero candidates.
			continue
		}

		candidates, err := blocker.Block(ctx, tuples)
		if err != nil {
			return Decision{}, err
		}

		for _, result := range c.EvaluatePass(pass, incoming, candidates) {
			existing, seen := best[result.PersonID]
			if !seen {
				best[result.PersonID] = result
				order = append(order, result.PersonID)
				continue
			}
			if betterResult(result, existing, passIdx, passIndex(c.Passes, existing.PassLabel)) {
				best[result.PersonID] = result
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var results []ClusterResult
	for _, personID := range order {
		results = append(results, best[personID])
	}

	return decide(results, includeMultipleMatches), nil
}

// passBlockingTuples derives the pass's (key,value) tuples from the
// incoming record. If the record has no value for any one of the pass's
// declared blocking keys, it returns no tuples, so the pass emits zero
// candidates.
func passBlockingTuples(pass Pass, record *pii.Record) []blocking.Value {
	var tuples []blocking.Value
	for _, key := range pass.BlockingKeys {
		values := blocking.Extract(record, key)
		if len(values) == 0 {
			return nil
		}
		for _, v := range values {
			tuples = append(tuples, blocking.Value{Key: key, Value: v})
		}
	}
	return tuples
}

func passIndex(passes []Pass, label string) int {
	for i, p := range passes {
		if p.Label == label {
			return i
		}
	}
	return len(passes)
}

// betterResult reports whether candidate should replace current under the
// §4.7 merge rule: best grade, then largest RMS, then earliest pass.
func betterResult(candidate, current ClusterResult, candidatePassIdx, currentPassIdx int) bool {
	if candidate.Grade.rank() != current.Grade.rank() {
		return candidate.Grade.rank() > current.Grade.rank()
	}
	if candidate.RMS != current.RMS {
		return candidate.RMS > current.RMS
	}
	return candidatePassIdx < currentPassIdx
}

// decide applies §4.7's final decision rule to the merged per-person
// results.
func decide(results []ClusterResult, includeMultipleMatches bool) Decision {
	var certain, possible []ClusterResult
	for _, r := range results {
		switch r.Grade {
		case GradeCertain:
			certain = append(certain, r)
		case GradePossible:
			possible = append(possible, r)
		}
	}

	if len(certain) > 0 {
		kept := certain
		if !includeMultipleMatches {
			kept = []ClusterResult{bestByRMSThenPersonID(certain)}
		}
		return Decision{
			Grade:     GradeCertain,
			PersonID:  kept[0].PersonID,
			Attach:    true,
			NewPerson: false,
			Results:   kept,
		}
	}

	if len(possible) > 0 {
		return Decision{
			Grade:     GradePossible,
			Attach:    false,
			NewPerson: false,
			Results:   possible,
		}
	}

	return Decision{
		Grade:     GradeCertainlyNot,
		Attach:    true,
		NewPerson: true,
		Results:   results,
	}
}

// bestByRMSThenPersonID picks the single highest-RMS certain cluster,
// tie-broken by smallest person_id for determinism.
func bestByRMSThenPersonID(certain []ClusterResult) ClusterResult {
	best := certain[0]
	for _, r := range certain[1:] {
		if r.RMS > best.RMS || (r.RMS == best.RMS && r.PersonID < best.PersonID) {
			best = r
		}
	}
	return best
}

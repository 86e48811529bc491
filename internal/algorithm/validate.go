package algorithm

import "fmt"

// Validate eagerly checks a Config against §4.8's invariants. A Config that
// fails validation is never stored; the caller surfaces invalid-algorithm.
func Validate(c *Config) error {
	if c.Label == "" {
		return fmt.Errorf("algorithm: label is required")
	}
	for _, lo := range c.LogOdds {
		if lo.Value < 0 {
			return fmt.Errorf("algorithm %q: log_odds[%s] must be >= 0, got %v", c.Label, lo.Feature, lo.Value)
		}
	}

	adv := c.Advanced
	if adv.FuzzyMatchThreshold < 0 || adv.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("algorithm %q: advanced.fuzzy_match_threshold must be in [0,1], got %v", c.Label, adv.FuzzyMatchThreshold)
	}
	if adv.MaxMissingAllowedProportion < 0 || adv.MaxMissingAllowedProportion > 1 {
		return fmt.Errorf("algorithm %q: advanced.max_missing_allowed_proportion must be in [0,1], got %v", c.Label, adv.MaxMissingAllowedProportion)
	}
	if adv.MissingFieldPointsProportion < 0 || adv.MissingFieldPointsProportion > 1 {
		return fmt.Errorf("algorithm %q: advanced.missing_field_points_proportion must be in [0,1], got %v", c.Label, adv.MissingFieldPointsProportion)
	}
	switch adv.FuzzyMatchMeasure {
	case "", "JaroWinkler", "Levenshtein", "DamerauLevenshtein":
	default:
		return fmt.Errorf("algorithm %q: advanced.fuzzy_match_measure %q is not a recognized measure", c.Label, adv.FuzzyMatchMeasure)
	}

	if len(c.Passes) == 0 {
		return fmt.Errorf("algorithm %q: at least one pass is required", c.Label)
	}

	logOdds := c.logOddsIndex()
	for _, pass := range c.Passes {
		if pass.Label == "" {
			return fmt.Errorf("algorithm %q: every pass must have a label", c.Label)
		}
		if len(pass.Evaluators) == 0 {
			return fmt.Errorf("algorithm %q pass %q: at least one evaluator is required", c.Label, pass.Label)
		}
		for _, ev := range pass.Evaluators {
			weight, ok := logOdds[ev.Feature]
			if !ok || weight == 0 {
				return fmt.Errorf("algorithm %q pass %q: evaluator feature %q has no non-zero log_odds entry", c.Label, pass.Label, ev.Feature)
			}
			switch ev.Func {
			case CompareProbabilisticExact, CompareProbabilisticFuzzy:
			default:
				return fmt.Errorf("algorithm %q pass %q: evaluator feature %q has unrecognized comparator %q", c.Label, pass.Label, ev.Feature, ev.Func)
			}
		}

		w := pass.Window
		if w.MinRMS < 0 || w.MinRMS > w.CertainRMS || w.CertainRMS > 1 {
			return fmt.Errorf("algorithm %q pass %q: possible_match_window must satisfy 0 <= min_rms <= certain_rms <= 1, got [%v, %v]", c.Label, pass.Label, w.MinRMS, w.CertainRMS)
		}
	}

	return nil
}

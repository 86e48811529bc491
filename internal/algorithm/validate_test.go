package algorithm

import (
	"testing"

	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/pii"
)

func validConfig() *Config {
	return &Config{
		Label: "default",
		LogOdds: []LogOdds{
			{Feature: pii.LAST_NAME, Value: 10},
			{Feature: pii.BIRTHDATE, Value: 8},
		},
		Advanced: DefaultAdvanced(),
		Passes: []Pass{
			{
				Label:        "pass-1",
				BlockingKeys: []blocking.Key{blocking.KeyLastName},
				Evaluators: []Evaluator{
					{Feature: pii.LAST_NAME, Func: CompareProbabilisticFuzzy},
					{Feature: pii.BIRTHDATE, Func: CompareProbabilisticExact},
				},
				Window: Window{MinRMS: 0.5, CertainRMS: 0.9},
			},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate(valid config) = %v, want nil", err)
	}
}

func TestValidateRejectsEvaluatorWithoutLogOdds(t *testing.T) {
	cfg := validConfig()
	cfg.Passes[0].Evaluators = append(cfg.Passes[0].Evaluators, Evaluator{
		Feature: pii.ZIP, Func: CompareProbabilisticExact,
	})

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(evaluator with no log_odds entry) = nil, want error")
	}
}

func TestValidateRejectsZeroLogOdds(t *testing.T) {
	cfg := validConfig()
	cfg.LogOdds = append(cfg.LogOdds, LogOdds{Feature: pii.ZIP, Value: 0})
	cfg.Passes[0].Evaluators = append(cfg.Passes[0].Evaluators, Evaluator{
		Feature: pii.ZIP, Func: CompareProbabilisticExact,
	})

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(zero log_odds weight) = nil, want error")
	}
}

func TestValidateRejectsInvertedWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Passes[0].Window = Window{MinRMS: 0.9, CertainRMS: 0.5}

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(min_rms > certain_rms) = nil, want error")
	}
}

func TestValidateRejectsNegativeLogOdds(t *testing.T) {
	cfg := validConfig()
	cfg.LogOdds[0].Value = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(negative log_odds) = nil, want error")
	}
}

func TestValidateRejectsNoPasses(t *testing.T) {
	cfg := validConfig()
	cfg.Passes = nil

	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(no passes) = nil, want error")
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/blocking"
	"mpi-linkage/internal/linkage"
	"mpi-linkage/internal/mpi"
	"mpi-linkage/internal/pii"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(label string) *algorithm.Config {
	return &algorithm.Config{
		Label:   label,
		LogOdds: []algorithm.LogOdds{{Feature: pii.LAST_NAME, Value: 10}, {Feature: pii.BIRTHDATE, Value: 10}},
		Advanced: algorithm.DefaultAdvanced(),
		Passes: []algorithm.Pass{
			{
				Label:        "pass-1",
				BlockingKeys: []blocking.Key{blocking.KeyLastName},
				Evaluators: []algorithm.Evaluator{
					{Feature: pii.LAST_NAME, Func: algorithm.CompareProbabilisticExact},
					{Feature: pii.BIRTHDATE, Func: algorithm.CompareProbabilisticExact},
				},
				Window: algorithm.Window{MinRMS: 0.5, CertainRMS: 0.9},
			},
		},
	}
}

func newTestHandler(t *testing.T) (*Handler, *mpi.InMemoryRepository) {
	t.Helper()
	repo := mpi.NewInMemoryRepository()
	store := &stubStore{cfg: testConfig("default")}
	service := linkage.NewService(repo, store, "default", nil, 0)
	return NewHandler(service, store), repo
}

// stubStore is an algorithm.Store test double holding a single Config.
type stubStore struct {
	cfg *algorithm.Config
}

func (s *stubStore) Save(ctx context.Context, cfg *algorithm.Config) error {
	s.cfg = cfg
	return nil
}

func (s *stubStore) Load(ctx context.Context, label string) (*algorithm.Config, error) {
	if s.cfg == nil || label != s.cfg.Label {
		return nil, algorithm.ErrNotFound
	}
	return s.cfg, nil
}

func TestLinkHandlerCreatesNewPersonOnNoCandidates(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"record":{"name":[{"family":"Smith","given":["Ann"]}],"birth_date":"1990-01-01"}}`
	req := httptest.NewRequest(http.MethodPost, "/link", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = req
	handler.Link(ctx)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp LinkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PatientReferenceID == "" {
		t.Fatal("expected a patient_reference_id")
	}
	if resp.MatchGrade != string(algorithm.GradeCertainlyNot) {
		t.Fatalf("grade = %s, want certainly-not", resp.MatchGrade)
	}
}

func TestLinkHandlerRejectsMalformedJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/link", bytes.NewBufferString(`{"record":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = req
	handler.Link(ctx)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestLinkHandlerUnknownAlgorithmReturns422(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"record":{"birth_date":"1990-01-01"},"algorithm":"does-not-exist"}`
	req := httptest.NewRequest(http.MethodPost, "/link", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = req
	handler.Link(ctx)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var body2 map[string]string
	json.Unmarshal(w.Body.Bytes(), &body2)
	if body2["detail"] != "No algorithm found" {
		t.Fatalf("detail = %q", body2["detail"])
	}
}

func TestLinkHandlerEmptyRecordReturns422(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"record":{}}`
	req := httptest.NewRequest(http.MethodPost, "/link", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = req
	handler.Link(ctx)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

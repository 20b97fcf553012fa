package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/loopcart/ranking-service/internal/application"
	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

type stubRankingStore struct {
	entries []ports.RankingEntry
}

func (s *stubRankingStore) IncrementScore(context.Context, time.Time, int64, domain.Weight) error {
	return nil
}

func (s *stubRankingStore) CarryOverScore(context.Context, time.Time, time.Time) (int, error) {
	return 0, nil
}

func (s *stubRankingStore) Range(_ context.Context, _ time.Time, start, end int64) ([]ports.RankingEntry, error) {
	if start >= int64(len(s.entries)) {
		return nil, nil
	}
	if end >= int64(len(s.entries)) {
		end = int64(len(s.entries)) - 1
	}
	return s.entries[start : end+1], nil
}

func (s *stubRankingStore) Rank(_ context.Context, _ time.Time, productID int64) (int64, bool, error) {
	for i, entry := range s.entries {
		if entry.ProductID == productID {
			return int64(i) + 1, true, nil
		}
	}
	return 0, false, nil
}

type emptyRankTable struct{}

func (emptyRankTable) Upsert(context.Context, ports.RankRow) error { return nil }
func (emptyRankTable) FindByPeriod(context.Context, domain.RankingPeriod) ([]ports.RankRow, error) {
	return nil, nil
}
func (emptyRankTable) UpdateRanking(context.Context, int64, domain.RankingPeriod, int) error {
	return nil
}
func (emptyRankTable) DeleteByProductAndPeriod(context.Context, int64, domain.RankingPeriod) error {
	return nil
}
func (emptyRankTable) FindRankedByPeriod(context.Context, domain.RankingPeriod, int, int) ([]ports.RankRow, error) {
	return nil, nil
}

type recordingOutbox struct {
	staged []ports.OutboxRecord
}

func (r *recordingOutbox) Stage(_ context.Context, record ports.OutboxRecord) error {
	if record.OutboxID == uuid.Nil {
		record.OutboxID = uuid.New()
	}
	r.staged = append(r.staged, record)
	return nil
}

func (r *recordingOutbox) FetchPending(context.Context, int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (r *recordingOutbox) FetchRetryable(context.Context, int, int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (r *recordingOutbox) MarkPublished(context.Context, uuid.UUID) error { return nil }

func (r *recordingOutbox) MarkFailed(context.Context, uuid.UUID, string) error { return nil }

type passthroughUnitOfWork struct {
	tx ports.TxRepositories
}

func (u *passthroughUnitOfWork) Do(_ context.Context, fn func(tx ports.TxRepositories) error) error {
	return fn(u.tx)
}

func newTestRouter(store *stubRankingStore, outbox *recordingOutbox) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := application.NewService(application.Dependencies{
		Logger:      logger,
		UnitOfWork:  &passthroughUnitOfWork{tx: ports.TxRepositories{Outbox: outbox}},
		RankWeekly:  emptyRankTable{},
		RankMonthly: emptyRankTable{},
		Ranking:     store,
	})
	return NewRouter(logger, NewHandler(service))
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetRankingsDaily(t *testing.T) {
	t.Parallel()
	store := &stubRankingStore{entries: []ports.RankingEntry{
		{ProductID: 1, Score: 100},
		{ProductID: 2, Score: 90},
	}}
	router := newTestRouter(store, &recordingOutbox{})

	rec := doRequest(t, router, http.MethodGet, "/v1/rankings?date=20260901&page=1&size=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			ProductID int64   `json:"productId"`
			Rank      int     `json:"rank"`
			Score     float64 `json:"score"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].ProductID != 1 || resp.Data[0].Rank != 1 || resp.Data[1].Rank != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestGetRankingsEmptyState(t *testing.T) {
	t.Parallel()
	router := newTestRouter(&stubRankingStore{}, &recordingOutbox{})

	for _, target := range []string{
		"/v1/rankings?date=20260901",
		"/v1/rankings?type=WEEKLY&date=20260901",
		"/v1/rankings?type=MONTHLY&date=20260901",
	} {
		rec := doRequest(t, router, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		var resp struct {
			Data []any `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode body: %v", target, err)
		}
		if len(resp.Data) != 0 {
			t.Fatalf("%s: expected empty data, got %s", target, rec.Body.String())
		}
	}
}

func TestGetRankingsValidation(t *testing.T) {
	t.Parallel()
	router := newTestRouter(&stubRankingStore{}, &recordingOutbox{})

	cases := []string{
		"/v1/rankings?date=2026-09-01",
		"/v1/rankings?page=abc",
		"/v1/rankings?type=YEARLY",
		"/v1/rankings?page=-1&size=10&date=20260901",
	}
	for _, target := range cases {
		rec := doRequest(t, router, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestGetProductRankNotFound(t *testing.T) {
	t.Parallel()
	router := newTestRouter(&stubRankingStore{}, &recordingOutbox{})

	rec := doRequest(t, router, http.MethodGet, "/v1/rankings/products/99/rank?date=20260901", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRecordEventEndpoint(t *testing.T) {
	t.Parallel()
	outbox := &recordingOutbox{}
	router := newTestRouter(&stubRankingStore{}, outbox)

	rec := doRequest(t, router, http.MethodPost, "/v1/events/product-liked", `{"productId":12,"userId":34}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(outbox.staged) != 1 || outbox.staged[0].Topic != "product-liked-events" {
		t.Fatalf("expected staged product-liked record, got %+v", outbox.staged)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/events/product-liked", `{"productId":0,"userId":34}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid product id, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/events/order-created", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}
}

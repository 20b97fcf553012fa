package application_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

type fakeOutbox struct {
	records []ports.OutboxRecord
}

func (f *fakeOutbox) Stage(_ context.Context, record ports.OutboxRecord) error {
	if record.OutboxID == uuid.Nil {
		record.OutboxID = uuid.New()
	}
	record.Status = ports.OutboxPending
	f.records = append(f.records, record)
	return nil
}

func (f *fakeOutbox) FetchPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	var out []ports.OutboxRecord
	for _, rec := range f.records {
		if rec.Status == ports.OutboxPending && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeOutbox) FetchRetryable(_ context.Context, limit, maxRetries int) ([]ports.OutboxRecord, error) {
	var out []ports.OutboxRecord
	for _, rec := range f.records {
		if rec.Status == ports.OutboxFailed && rec.RetryCount < maxRetries && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, outboxID uuid.UUID) error {
	for i := range f.records {
		if f.records[i].OutboxID == outboxID {
			f.records[i].Status = ports.OutboxPublished
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOutbox) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string) error {
	for i := range f.records {
		if f.records[i].OutboxID == outboxID {
			f.records[i].Status = ports.OutboxFailed
			f.records[i].ErrorMessage = errMsg
			f.records[i].RetryCount++
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeLedger struct {
	handled map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{handled: map[string]bool{}} }

func (f *fakeLedger) IsHandled(_ context.Context, eventID string) (bool, error) {
	return f.handled[eventID], nil
}

func (f *fakeLedger) MarkHandled(_ context.Context, eventID string, _ domain.EventType, _ string, _ time.Time) error {
	f.handled[eventID] = true
	return nil
}

type metricCounts struct {
	id    int64
	like  int64
	view  int64
	sales int64
}

type fakeMetrics struct {
	counts map[int64]*metricCounts
	nextID int64
	// createRaceLosses makes the next N increments report a lost row-creation
	// race before succeeding, the way two consumers colliding on a fresh
	// (product, date) row do.
	createRaceLosses int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{counts: map[int64]*metricCounts{}} }

func (f *fakeMetrics) loseRace() error {
	if f.createRaceLosses > 0 {
		f.createRaceLosses--
		return fmt.Errorf("%w: concurrent row creation", domain.ErrVersionConflict)
	}
	return nil
}

func (f *fakeMetrics) row(productID int64) *metricCounts {
	if c, ok := f.counts[productID]; ok {
		return c
	}
	f.nextID++
	c := &metricCounts{id: f.nextID}
	f.counts[productID] = c
	return c
}

func (f *fakeMetrics) IncrementLikeCount(_ context.Context, productID int64, _ time.Time) error {
	if err := f.loseRace(); err != nil {
		return err
	}
	f.row(productID).like++
	return nil
}

func (f *fakeMetrics) DecrementLikeCount(_ context.Context, productID int64, _ time.Time) error {
	c, ok := f.counts[productID]
	if !ok {
		return nil
	}
	if c.like > 0 {
		c.like--
	}
	return nil
}

func (f *fakeMetrics) IncrementViewCount(_ context.Context, productID int64, _ time.Time) error {
	if err := f.loseRace(); err != nil {
		return err
	}
	f.row(productID).view++
	return nil
}

func (f *fakeMetrics) IncrementSalesCount(_ context.Context, productID int64, _ time.Time, quantity int) error {
	if err := f.loseRace(); err != nil {
		return err
	}
	f.row(productID).sales += int64(quantity)
	return nil
}

func (f *fakeMetrics) FindByDate(_ context.Context, date time.Time, afterID int64, limit int) ([]ports.ProductMetrics, error) {
	var rows []ports.ProductMetrics
	for productID, c := range f.counts {
		if c.id <= afterID {
			continue
		}
		rows = append(rows, ports.ProductMetrics{
			ID:          c.id,
			ProductID:   productID,
			MetricsDate: date,
			LikeCount:   c.like,
			ViewCount:   c.view,
			SalesCount:  c.sales,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

type fakeRankTable struct {
	rows map[int64]*ports.RankRow
}

func newFakeRankTable() *fakeRankTable { return &fakeRankTable{rows: map[int64]*ports.RankRow{}} }

func (f *fakeRankTable) Upsert(_ context.Context, row ports.RankRow) error {
	if existing, ok := f.rows[row.ProductID]; ok {
		row.Ranking = existing.Ranking
	}
	f.rows[row.ProductID] = &row
	return nil
}

func (f *fakeRankTable) FindByPeriod(_ context.Context, _ domain.RankingPeriod) ([]ports.RankRow, error) {
	var out []ports.RankRow
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeRankTable) UpdateRanking(_ context.Context, productID int64, _ domain.RankingPeriod, ranking int) error {
	row, ok := f.rows[productID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Ranking = &ranking
	return nil
}

func (f *fakeRankTable) DeleteByProductAndPeriod(_ context.Context, productID int64, _ domain.RankingPeriod) error {
	delete(f.rows, productID)
	return nil
}

func (f *fakeRankTable) FindRankedByPeriod(_ context.Context, _ domain.RankingPeriod, offset, limit int) ([]ports.RankRow, error) {
	var ranked []ports.RankRow
	for _, row := range f.rows {
		if row.Ranking != nil {
			ranked = append(ranked, *row)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return *ranked[i].Ranking < *ranked[j].Ranking })
	if offset >= len(ranked) {
		return nil, nil
	}
	ranked = ranked[offset:]
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

type fakeRankingStore struct {
	days         map[string]map[int64]float64
	carryOverErr error
}

func newFakeRankingStore() *fakeRankingStore {
	return &fakeRankingStore{days: map[string]map[int64]float64{}}
}

func (f *fakeRankingStore) day(date time.Time) map[int64]float64 {
	key := domain.FormatDate(date)
	if d, ok := f.days[key]; ok {
		return d
	}
	d := map[int64]float64{}
	f.days[key] = d
	return d
}

func (f *fakeRankingStore) IncrementScore(_ context.Context, date time.Time, productID int64, weight domain.Weight) error {
	f.day(date)[productID] += weight.Value
	return nil
}

func (f *fakeRankingStore) CarryOverScore(_ context.Context, fromDate, toDate time.Time) (int, error) {
	if f.carryOverErr != nil {
		err := f.carryOverErr
		f.carryOverErr = nil
		return 0, err
	}
	from := f.day(fromDate)
	to := f.day(toDate)
	seeded := 0
	for productID, score := range from {
		if score <= 0 {
			continue
		}
		to[productID] += score * domain.WeightCarryOver.Value
		seeded++
	}
	return seeded, nil
}

func (f *fakeRankingStore) sorted(date time.Time) []ports.RankingEntry {
	day := f.day(date)
	entries := make([]ports.RankingEntry, 0, len(day))
	for productID, score := range day {
		entries = append(entries, ports.RankingEntry{ProductID: productID, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ProductID < entries[j].ProductID
	})
	return entries
}

func (f *fakeRankingStore) Range(_ context.Context, date time.Time, start, end int64) ([]ports.RankingEntry, error) {
	entries := f.sorted(date)
	if start >= int64(len(entries)) {
		return nil, nil
	}
	if end >= int64(len(entries)) {
		end = int64(len(entries)) - 1
	}
	return entries[start : end+1], nil
}

func (f *fakeRankingStore) Rank(_ context.Context, date time.Time, productID int64) (int64, bool, error) {
	for i, entry := range f.sorted(date) {
		if entry.ProductID == productID {
			return int64(i) + 1, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeRankingStore) score(date time.Time, productID int64) float64 {
	return f.day(date)[productID]
}

type fakeMarker struct {
	acquired map[string]bool
}

func newFakeMarker() *fakeMarker { return &fakeMarker{acquired: map[string]bool{}} }

func markerKey(fromDate, toDate time.Time) string {
	return fmt.Sprintf("%s:%s", domain.FormatDate(fromDate), domain.FormatDate(toDate))
}

func (f *fakeMarker) Acquire(_ context.Context, fromDate, toDate time.Time, _ time.Duration) (bool, error) {
	key := markerKey(fromDate, toDate)
	if f.acquired[key] {
		return false, nil
	}
	f.acquired[key] = true
	return true, nil
}

func (f *fakeMarker) Release(_ context.Context, fromDate, toDate time.Time) error {
	delete(f.acquired, markerKey(fromDate, toDate))
	return nil
}

type fakeProductCache struct {
	invalidated []int64
}

func (f *fakeProductCache) Invalidate(_ context.Context, productID int64) error {
	f.invalidated = append(f.invalidated, productID)
	return nil
}

// fakeUnitOfWork mimics transaction semantics over the in-memory fakes:
// outbox and ledger writes made inside Do are discarded when the closure
// errors or when an injected commit error fires.
type fakeUnitOfWork struct {
	tx        ports.TxRepositories
	outbox    *fakeOutbox
	ledger    *fakeLedger
	commitErr error
}

func (f *fakeUnitOfWork) Do(_ context.Context, fn func(tx ports.TxRepositories) error) error {
	staged := append([]ports.OutboxRecord(nil), f.outbox.records...)
	handled := make(map[string]bool, len(f.ledger.handled))
	for eventID, ok := range f.ledger.handled {
		handled[eventID] = ok
	}

	err := fn(f.tx)
	if err == nil {
		err = f.commitErr
		f.commitErr = nil
	}
	if err != nil {
		f.outbox.records = staged
		f.ledger.handled = handled
	}
	return err
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ev-risk/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &PostgresStore{pool: mock, now: func() time.Time { return fixed }}
	return s, mock
}

var reportColumns = []string{"id", "status", "payload", "created_at", "paid_at",
	"stripe_session_id", "customer_email", "vehicle_year", "vehicle_model", "is_free"}

func TestPostgresStore_GetReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	payload, err := json.Marshal(testPayload("Tesla Model 3", 2022, model.RatingGreen, 86))
	require.NoError(t, err)
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	year := 2022
	vehicle := "Tesla Model 3"

	mock.ExpectQuery(`SELECT id, status, payload, .* FROM reports WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows(reportColumns).
			AddRow("r1", model.ReportStatusFree, payload, created, (*time.Time)(nil),
				(*string)(nil), (*string)(nil), &year, &vehicle, true))

	r, err := s.GetReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, model.ReportStatusFree, r.Status)
	assert.Equal(t, 2022, r.VehicleYear)
	assert.Equal(t, "Tesla Model 3", r.VehicleModel)
	assert.Nil(t, r.PaidAt)
	require.NotNil(t, r.Payload.Confidence)
	assert.Equal(t, 86, r.Payload.Confidence.OverallScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM reports WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM reports WHERE id = \$1`).
		WithArgs("r1").
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := s.GetReport(context.Background(), "r1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get report r1")
}

func TestPostgresStore_CreateReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(pgxmock.AnyArg(), "draft", pgxmock.AnyArg(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			pgxmock.AnyArg(), "Nissan Leaf", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r, err := s.CreateReport(context.Background(), model.ReportStatusDraft, testPayload("Nissan Leaf", 2019, model.RatingRed, 29))
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusDraft, r.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReports(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	r, err := NewReport(model.ReportStatusFree, testPayload("Kia EV6", 2023, model.RatingGreen, 80), time.Now())
	require.NoError(t, err)

	mock.ExpectCopyFrom(pgx.Identifier{"reports"}, reportCopyColumns).WillReturnResult(1)

	n, err := s.SaveReports(context.Background(), []model.Report{r})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReports(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM reports WHERE 1=1 AND status = \$1 ORDER BY created_at DESC, id LIMIT \$2 OFFSET \$3`).
		WithArgs("paid", 10, 20).
		WillReturnRows(pgxmock.NewRows(reportColumns))

	reports, err := s.ListReports(context.Background(), model.ReportFilter{Status: model.ReportStatusPaid, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPaid(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status = 'paid'`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.MarkPaid(context.Background(), "r1", "cs_1", "a@b.c"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPaid_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status = 'paid'`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkPaid(context.Background(), "missing", "cs_1", "a@b.c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_AddFeedback(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO feedback .* WHERE EXISTS`).
		WithArgs("r1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	fb, err := s.AddFeedback(context.Background(), model.Feedback{ReportID: "r1", Rating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), fb.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddFeedback_UnknownReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO feedback`).
		WithArgs("missing", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.AddFeedback(context.Background(), model.Feedback{ReportID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Analytics(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM reports WHERE created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "free", "paid", "draft", "customers"}).
			AddRow(10, 6, 3, 1, 3))
	mock.ExpectQuery(`GROUP BY vehicle_model, vehicle_year`).
		WithArgs(since, topVehicleLimit).
		WillReturnRows(pgxmock.NewRows([]string{"model", "year", "total", "paid", "free"}).
			AddRow("Tesla Model 3", 2022, 4, 1, 3))
	mock.ExpectQuery(`FROM feedback WHERE created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "avg", "yes", "no"}).
			AddRow(3, 3.6666, 2, 1))
	mock.ExpectQuery(`GROUP BY rating`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"rating", "count"}).
			AddRow(5, 2).AddRow(1, 1))

	a, err := s.Analytics(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 10, a.TotalReports)
	assert.Equal(t, 30.0, a.ConversionRate)
	require.Len(t, a.TopVehicles, 1)
	assert.Equal(t, 4, a.TopVehicles[0].Total)
	assert.Equal(t, 3.67, a.AvgRating)
	assert.Equal(t, 66.67, a.RecommendationRate)
	assert.Len(t, a.RatingDistribution, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS reports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

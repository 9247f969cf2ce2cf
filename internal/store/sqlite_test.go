package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ev-risk/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, func(t *testing.T) Store { return newTestSQLiteStore(t) })
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ListReports_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		st.now = func() time.Time { return at }
		r, err := st.CreateReport(ctx, model.ReportStatusFree, testPayload("Kia EV6", 2023, model.RatingGreen, 80))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	got, err := st.ListReports(ctx, model.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[0], got[2].ID)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Hour)))
}

func TestSQLite_Analytics_Since(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return old }
	r, err := st.CreateReport(ctx, model.ReportStatusFree, testPayload("Nissan Leaf", 2019, model.RatingRed, 29))
	require.NoError(t, err)
	_, err = st.AddFeedback(ctx, model.Feedback{ReportID: r.ID, Rating: intPtr(1)})
	require.NoError(t, err)

	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return recent }
	_, err = st.CreateReport(ctx, model.ReportStatusFree, testPayload("Tesla Model 3", 2022, model.RatingGreen, 86))
	require.NoError(t, err)

	a, err := st.Analytics(ctx, recent.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalReports)
	assert.Zero(t, a.TotalFeedback)
	require.Len(t, a.TopVehicles, 1)
	assert.Equal(t, "Tesla Model 3", a.TopVehicles[0].Model)

	all, err := st.Analytics(ctx, old.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalReports)
	assert.Equal(t, 1, all.TotalFeedback)
}

func TestSQLite_MarkPaid_Timestamp(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r, err := st.CreateReport(ctx, model.ReportStatusDraft, testPayload("Chevy Bolt", 2020, model.RatingYellow, 60))
	require.NoError(t, err)

	paid := time.Date(2025, 3, 4, 5, 6, 7, 8, time.UTC)
	st.now = func() time.Time { return paid }
	require.NoError(t, st.MarkPaid(ctx, r.ID, "", ""))

	got, err := st.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(paid))
	assert.Empty(t, got.StripeSessionID)
	assert.Empty(t, got.CustomerEmail)
}

func TestSQLiteTime_SortsLexically(t *testing.T) {
	t.Parallel()
	a := sqliteTime(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	b := sqliteTime(time.Date(2025, 1, 1, 10, 0, 0, 5, time.UTC))
	assert.Less(t, a, b)
	assert.Len(t, a, len(b))
}

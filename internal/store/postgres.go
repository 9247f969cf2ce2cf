package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ev-risk/internal/db"
	"github.com/sells-group/ev-risk/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

// Pool exposes the underlying pool for bulk helpers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL CHECK (status IN ('draft', 'paid', 'free')),
	payload           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	paid_at           TIMESTAMPTZ,
	stripe_session_id TEXT,
	customer_email    TEXT,
	vehicle_year      INTEGER,
	vehicle_model     TEXT,
	is_free           BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_stripe_session ON reports(stripe_session_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);

CREATE TABLE IF NOT EXISTS feedback (
	id              BIGSERIAL PRIMARY KEY,
	report_id       TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	rating          INTEGER CHECK (rating BETWEEN 1 AND 5),
	feedback_text   TEXT,
	would_recommend BOOLEAN,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_feedback_report_id ON feedback(report_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const postgresInsertReport = `INSERT INTO reports
	(id, status, payload, created_at, vehicle_year, vehicle_model, is_free)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

var reportCopyColumns = []string{"id", "status", "payload", "created_at", "vehicle_year", "vehicle_model", "is_free"}

func (s *PostgresStore) CreateReport(ctx context.Context, status model.ReportStatus, payload model.ReportPayload) (*model.Report, error) {
	r, err := NewReport(status, payload, s.clock())
	if err != nil {
		return nil, err
	}
	row, err := reportRow(r)
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, postgresInsertReport, row...); err != nil {
		return nil, eris.Wrapf(err, "postgres: insert report %s", r.ID)
	}
	return &r, nil
}

// SaveReports bulk-loads reports with COPY.
func (s *PostgresStore) SaveReports(ctx context.Context, reports []model.Report) (int64, error) {
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		row, err := reportRow(r)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	n, err := db.CopyFrom(ctx, s.pool, "reports", reportCopyColumns, rows)
	return n, eris.Wrap(err, "postgres: save reports")
}

func reportRow(r model.Report) ([]any, error) {
	payloadJSON, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal payload")
	}
	var year *int
	if r.VehicleYear != 0 {
		year = &r.VehicleYear
	}
	return []any{r.ID, string(r.Status), payloadJSON, r.CreatedAt, year, r.VehicleModel, r.IsFree}, nil
}

const postgresReportColumns = `id, status, payload, created_at, paid_at,
	stripe_session_id, customer_email, vehicle_year, vehicle_model, is_free`

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresReportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanPostgresReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	query := `SELECT ` + postgresReportColumns + ` FROM reports WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanPostgresReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) MarkPaid(ctx context.Context, id, sessionID, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET status = 'paid', paid_at = $1, stripe_session_id = $2, customer_email = $3 WHERE id = $4`,
		s.clock().UTC(), optional(sessionID), optional(email), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark paid %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	if err := validateFeedback(fb); err != nil {
		return nil, err
	}
	fb.CreatedAt = s.clock().UTC()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO feedback (report_id, rating, feedback_text, would_recommend, created_at)
		 SELECT $1::text, $2::integer, $3::text, $4::boolean, $5::timestamptz
		 WHERE EXISTS (SELECT 1 FROM reports WHERE id = $1)
		 RETURNING id`,
		fb.ReportID, fb.Rating, fb.FeedbackText, fb.WouldRecommend, fb.CreatedAt,
	).Scan(&fb.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert feedback for %s", fb.ReportID)
	}
	return &fb, nil
}

func (s *PostgresStore) Analytics(ctx context.Context, since time.Time) (*model.Analytics, error) {
	a := &model.Analytics{Since: since.UTC()}

	err := s.pool.QueryRow(ctx, rebind(overviewQuery), since).Scan(
		&a.TotalReports, &a.FreeReports, &a.PaidReports, &a.DraftReports, &a.UniqueCustomers)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics overview")
	}
	a.ConversionRate = percent(a.PaidReports, a.TotalReports)

	rows, err := s.pool.Query(ctx, rebind(topVehiclesQuery), since, topVehicleLimit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics top vehicles")
	}
	a.TopVehicles = []model.VehicleCount{}
	for rows.Next() {
		var v model.VehicleCount
		if err := rows.Scan(&v.Model, &v.Year, &v.Total, &v.PaidCount, &v.FreeCount); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan top vehicle")
		}
		a.TopVehicles = append(a.TopVehicles, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: analytics top vehicles iterate")
	}

	err = s.pool.QueryRow(ctx, rebind(feedbackStatsQuery), since).Scan(
		&a.TotalFeedback, &a.AvgRating, &a.WouldRecommend, &a.WouldNotRecommend)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics feedback")
	}
	a.AvgRating = round2(a.AvgRating)
	a.RecommendationRate = percent(a.WouldRecommend, a.WouldRecommend+a.WouldNotRecommend)

	dist, err := s.pool.Query(ctx, rebind(ratingDistributionQuery), since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics rating distribution")
	}
	defer dist.Close()
	a.RatingDistribution = []model.RatingCount{}
	for dist.Next() {
		var rc model.RatingCount
		if err := dist.Scan(&rc.Rating, &rc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rating count")
		}
		a.RatingDistribution = append(a.RatingDistribution, rc)
	}
	return a, eris.Wrap(dist.Err(), "postgres: analytics rating distribution iterate")
}

func (s *PostgresStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func scanPostgresReport(row pgx.Row) (*model.Report, error) {
	var (
		r           model.Report
		payloadJSON []byte
		paidAt      *time.Time
		sessionID   *string
		email       *string
		year        *int
		vehicle     *string
	)
	err := row.Scan(&r.ID, &r.Status, &payloadJSON, &r.CreatedAt, &paidAt,
		&sessionID, &email, &year, &vehicle, &r.IsFree)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadJSON, &r.Payload); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal payload")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if paidAt != nil {
		t := paidAt.UTC()
		r.PaidAt = &t
	}
	r.StripeSessionID = deref(sessionID)
	r.CustomerEmail = deref(email)
	if year != nil {
		r.VehicleYear = *year
	}
	r.VehicleModel = deref(vehicle)
	return &r, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

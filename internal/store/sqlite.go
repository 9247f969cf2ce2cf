package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ev-risk/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL CHECK (status IN ('draft', 'paid', 'free')),
	payload_json      TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	paid_at           TEXT,
	stripe_session_id TEXT,
	customer_email    TEXT,
	vehicle_year      INTEGER,
	vehicle_model     TEXT,
	is_free           INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_stripe_session ON reports(stripe_session_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);

CREATE TABLE IF NOT EXISTS feedback (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id       TEXT NOT NULL REFERENCES reports(id),
	rating          INTEGER CHECK (rating BETWEEN 1 AND 5),
	feedback_text   TEXT,
	would_recommend INTEGER,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_report_id ON feedback(report_id);
`

// sqliteTimeLayout is fixed-width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsertReport = `INSERT INTO reports
	(id, status, payload_json, created_at, vehicle_year, vehicle_model, is_free)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) CreateReport(ctx context.Context, status model.ReportStatus, payload model.ReportPayload) (*model.Report, error) {
	r, err := NewReport(status, payload, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.insertReport(ctx, s.db, r); err != nil {
		return nil, err
	}
	return &r, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insertReport(ctx context.Context, ex execer, r model.Report) error {
	payloadJSON, err := json.Marshal(r.Payload)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal payload")
	}
	_, err = ex.ExecContext(ctx, sqliteInsertReport,
		r.ID, string(r.Status), string(payloadJSON), sqliteTime(r.CreatedAt),
		nullInt(r.VehicleYear), r.VehicleModel, r.IsFree,
	)
	return eris.Wrapf(err, "sqlite: insert report %s", r.ID)
}

// SaveReports inserts already-built reports in one transaction.
func (s *SQLiteStore) SaveReports(ctx context.Context, reports []model.Report) (int64, error) {
	if len(reports) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range reports {
		if err := s.insertReport(ctx, tx, r); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit reports")
	}
	return int64(len(reports)), nil
}

const sqliteReportColumns = `id, status, payload_json, created_at, paid_at,
	stripe_session_id, customer_email, vehicle_year, vehicle_model, is_free`

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteReportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanSQLiteReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	query := `SELECT ` + sqliteReportColumns + ` FROM reports WHERE 1=1`
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

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) MarkPaid(ctx context.Context, id, sessionID, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = 'paid', paid_at = ?, stripe_session_id = ?, customer_email = ? WHERE id = ?`,
		sqliteTime(s.now()), nullString(sessionID), nullString(email), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark paid %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AddFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	if err := validateFeedback(fb); err != nil {
		return nil, err
	}
	fb.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (report_id, rating, feedback_text, would_recommend, created_at)
		 SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM reports WHERE id = ?)`,
		fb.ReportID, fb.Rating, fb.FeedbackText, fb.WouldRecommend, sqliteTime(fb.CreatedAt), fb.ReportID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert feedback for %s", fb.ReportID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	if fb.ID, err = res.LastInsertId(); err != nil {
		return nil, eris.Wrap(err, "sqlite: feedback id")
	}
	return &fb, nil
}

func (s *SQLiteStore) Analytics(ctx context.Context, since time.Time) (*model.Analytics, error) {
	a := &model.Analytics{Since: since.UTC()}
	ts := sqliteTime(since)

	err := s.db.QueryRowContext(ctx, overviewQuery, ts).Scan(
		&a.TotalReports, &a.FreeReports, &a.PaidReports, &a.DraftReports, &a.UniqueCustomers)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics overview")
	}
	a.ConversionRate = percent(a.PaidReports, a.TotalReports)

	rows, err := s.db.QueryContext(ctx, topVehiclesQuery, ts, topVehicleLimit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics top vehicles")
	}
	defer rows.Close()
	a.TopVehicles = []model.VehicleCount{}
	for rows.Next() {
		var v model.VehicleCount
		if err := rows.Scan(&v.Model, &v.Year, &v.Total, &v.PaidCount, &v.FreeCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan top vehicle")
		}
		a.TopVehicles = append(a.TopVehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics top vehicles iterate")
	}

	err = s.db.QueryRowContext(ctx, feedbackStatsQuery, ts).Scan(
		&a.TotalFeedback, &a.AvgRating, &a.WouldRecommend, &a.WouldNotRecommend)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics feedback")
	}
	a.AvgRating = round2(a.AvgRating)
	a.RecommendationRate = percent(a.WouldRecommend, a.WouldRecommend+a.WouldNotRecommend)

	dist, err := s.db.QueryContext(ctx, ratingDistributionQuery, ts)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics rating distribution")
	}
	defer dist.Close()
	a.RatingDistribution = []model.RatingCount{}
	for dist.Next() {
		var rc model.RatingCount
		if err := dist.Scan(&rc.Rating, &rc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rating count")
		}
		a.RatingDistribution = append(a.RatingDistribution, rc)
	}
	return a, eris.Wrap(dist.Err(), "sqlite: analytics rating distribution iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteReport(row scannable) (*model.Report, error) {
	var (
		r           model.Report
		payloadJSON string
		createdAt   string
		paidAt      sql.NullString
		sessionID   sql.NullString
		email       sql.NullString
		year        sql.NullInt64
		vehicle     sql.NullString
	)
	err := row.Scan(&r.ID, &r.Status, &payloadJSON, &createdAt, &paidAt,
		&sessionID, &email, &year, &vehicle, &r.IsFree)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payloadJSON), &r.Payload); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal payload")
	}
	if r.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse created_at")
	}
	if paidAt.Valid {
		t, err := time.Parse(sqliteTimeLayout, paidAt.String)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: parse paid_at")
		}
		r.PaidAt = &t
	}
	r.StripeSessionID = sessionID.String
	r.CustomerEmail = email.String
	r.VehicleYear = int(year.Int64)
	r.VehicleModel = vehicle.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

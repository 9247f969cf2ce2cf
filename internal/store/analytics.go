package store

import (
	"fmt"
	"strings"
)

// Analytics queries are written once with "?" placeholders and rebound for
// Postgres. Both engines support aggregate FILTER clauses.
const (
	overviewQuery = `SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'free'),
	COUNT(*) FILTER (WHERE status = 'paid'),
	COUNT(*) FILTER (WHERE status = 'draft'),
	COUNT(DISTINCT customer_email)
FROM reports WHERE created_at >= ?`

	topVehiclesQuery = `SELECT
	vehicle_model,
	COALESCE(vehicle_year, 0),
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'paid'),
	COUNT(*) FILTER (WHERE status = 'free')
FROM reports
WHERE vehicle_model IS NOT NULL AND created_at >= ?
GROUP BY vehicle_model, vehicle_year
ORDER BY COUNT(*) DESC, vehicle_model, vehicle_year
LIMIT ?`

	feedbackStatsQuery = `SELECT
	COUNT(*),
	COALESCE(CAST(AVG(rating) AS DOUBLE PRECISION), 0),
	COUNT(*) FILTER (WHERE would_recommend),
	COUNT(*) FILTER (WHERE NOT would_recommend)
FROM feedback WHERE created_at >= ?`

	ratingDistributionQuery = `SELECT rating, COUNT(*)
FROM feedback
WHERE rating IS NOT NULL AND created_at >= ?
GROUP BY rating
ORDER BY rating DESC`
)

// rebind rewrites "?" placeholders as "$1", "$2", ...
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

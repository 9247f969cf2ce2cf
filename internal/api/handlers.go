package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/scoring"
	"github.com/sells-group/ev-risk/internal/store"
	"github.com/sells-group/ev-risk/internal/validate"
)

// maxBodyBytes caps every decoded request body.
const maxBodyBytes = 1 << 20

func (s *Server) year() int {
	if s.asOfYear > 0 {
		return s.asOfYear
	}
	return s.now().Year()
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			zap.L().Warn("api: health store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scoreResponse struct {
	Success    bool                `json:"success"`
	Input      model.ScoringInput  `json:"input"`
	Confidence model.BuyConfidence `json:"confidence"`
	Breakdown  []string            `json:"breakdown"`
	Timestamp  string              `json:"timestamp"`
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	var req validate.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	year := s.year()
	in, err := validate.Validate(req, year)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		internalError(w, r, "Internal server error calculating score", err)
		return
	}

	c := s.scorer.Score(in, year)

	zap.L().Debug("api: scored",
		zap.String("model", in.Model),
		zap.Int("year", in.Year),
		zap.Int("score", c.OverallScore),
		zap.String("rating", string(c.Rating)),
	)

	writeJSON(w, http.StatusOK, scoreResponse{
		Success:    true,
		Input:      in,
		Confidence: c,
		Breakdown:  scoring.Breakdown(c),
		Timestamp:  s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

type createReportRequest struct {
	ReportData *model.ReportPayload `json:"reportData"`
}

type createReportResponse struct {
	ReportID string             `json:"reportId"`
	Status   model.ReportStatus `json:"status"`
	Message  string             `json:"message"`
}

func (s *Server) createReport(status model.ReportStatus) http.HandlerFunc {
	message := "Report created successfully"
	failure := "Failed to create report"
	if status == model.ReportStatusFree {
		message = "Free report created successfully - this one's on us!"
		failure = "Failed to create free report"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req createReportRequest
		if err := decode(w, r, &req); err != nil ||
			req.ReportData == nil || req.ReportData.Input == nil || req.ReportData.Confidence == nil {
			writeError(w, http.StatusBadRequest, "Invalid report data - missing required fields")
			return
		}

		rep, err := s.store.CreateReport(r.Context(), status, *req.ReportData)
		if err != nil {
			internalError(w, r, failure, err)
			return
		}

		zap.L().Info("api: report created",
			zap.String("report_id", rep.ID),
			zap.String("status", string(rep.Status)),
			zap.Int("vehicle_year", rep.VehicleYear),
			zap.String("vehicle_model", rep.VehicleModel),
		)

		writeJSON(w, http.StatusOK, createReportResponse{
			ReportID: rep.ID,
			Status:   rep.Status,
			Message:  message,
		})
	}
}

// lookup loads the report named in the URL, answering 404 itself when it is
// missing. A nil report means the response has been written.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *model.Report {
	id := strings.TrimSpace(chi.URLParam(r, "reportID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Report ID is required")
		return nil
	}

	rep, err := s.store.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return nil
	}
	if err != nil {
		internalError(w, r, "Failed to load report", err)
		return nil
	}
	return rep
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	rep := s.lookup(w, r)
	if rep == nil {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request) {
	rep := s.lookup(w, r)
	if rep == nil {
		return
	}
	if !rep.Status.Unlocked() {
		writeError(w, http.StatusPaymentRequired, "Payment required - report not paid")
		return
	}
	writeJSON(w, http.StatusOK, model.Summarize(rep, scoring.FormatDollars))
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	var fb model.Feedback
	if err := decode(w, r, &fb); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	fb.ReportID = strings.TrimSpace(fb.ReportID)
	if fb.ReportID == "" {
		writeError(w, http.StatusBadRequest, "Report ID is required")
		return
	}
	if fb.Rating != nil && (*fb.Rating < 1 || *fb.Rating > 5) {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	saved, err := s.store.AddFeedback(r.Context(), fb)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		internalError(w, r, "Failed to submit feedback", err)
		return
	}

	zap.L().Info("api: feedback received",
		zap.String("report_id", saved.ReportID),
		zap.Int64("feedback_id", saved.ID),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thank you for your feedback!",
	})
}

// analytics summarizes activity over the last ?days=N days, or all time when
// the parameter is absent.
func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			writeError(w, http.StatusBadRequest, "Invalid 'days' parameter (must be a positive integer)")
			return
		}
		since = s.now().UTC().AddDate(0, 0, -days)
	}

	a, err := s.store.Analytics(r.Context(), since)
	if err != nil {
		internalError(w, r, "Failed to fetch analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

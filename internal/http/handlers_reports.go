package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"agencycrm/internal/log"
	"agencycrm/internal/services"
)

// progress returns the report for actor, from cache when possible.
func (s *Server) progress(ctx context.Context, actor string, q services.ReportQuery) (services.ProgressReport, error) {
	key := actor + "|" + q.Key()
	if report, ok := s.reportCache.Get(key); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		log.FromContext(ctx).DebugContext(ctx, "Progress report cache hit", log.FieldComponent, log.ComponentCache)
		return report, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	report, err := s.reports.Progress(ctx, actor, q)
	if err != nil {
		return services.ProgressReport{}, err
	}
	s.reportCache.Set(key, report)
	return report, nil
}

func (s *Server) handleProgressReport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	report, err := s.progress(r.Context(), actorFrom(r), q)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	NewResponse().JSON(report).Write(w)
}

// handleProgressPartial renders the progress table for the dashboard.
func (s *Server) handleProgressPartial(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r.URL.Query())
	if err != nil {
		HTMLErrorResponse(statusFor(err), err.Error()).Write(w)
		return
	}
	report, err := s.progress(r.Context(), actorFrom(r), q)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Progress report failed",
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpReport)
			msg = "could not load progress"
		}
		HTMLErrorResponse(status, msg).Write(w)
		return
	}

	if s.templates == nil {
		HTMLErrorResponse(http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "progress.html", report); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err.Error(),
			log.FieldComponent, log.ComponentTemplate,
			"template", "progress.html")
	}
}

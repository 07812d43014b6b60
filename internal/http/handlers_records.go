package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"agencycrm/internal/core"
	"agencycrm/internal/log"
	"agencycrm/internal/services"
)

func pathKind(r *http.Request) (core.RecordKind, error) {
	return core.ParseRecordKind(r.PathValue("kind"))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	q, err := ParseListQuery(r.URL.Query(), time.Now())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	page, err := s.records.List(r.Context(), actorFrom(r), kind, q)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewResponse().JSON(page).Write(w)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	var rec core.Record
	if err := decodeJSONBody(w, r, &rec); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	rec.Kind = kind
	rec.Student = sanitizeInput(rec.Student)

	created, err := s.records.Create(r.Context(), actorFrom(r), rec)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.recordsCreated, 1)
	s.invalidateReports()
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/"+kind.String()+"/"+created.ID).
		TriggerRecordsChanged(kind.String()).
		JSON(recordView(created)).
		Write(w)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	rec, err := s.records.Get(r.Context(), actorFrom(r), kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewResponse().JSON(recordView(rec)).Write(w)
}

func (s *Server) handlePatchRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	var patch services.RecordPatch
	if err := decodeJSONBody(w, r, &patch); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	rec, err := s.records.Patch(r.Context(), actorFrom(r), kind, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	s.invalidateReports()
	NewResponse().
		TriggerRecordsChanged(kind.String()).
		JSON(recordView(rec)).
		Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.records.Delete(r.Context(), actorFrom(r), kind, r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.recordsDeleted, 1)
	s.invalidateReports()
	NewResponse().
		Status(http.StatusNoContent).
		TriggerRecordsChanged(kind.String()).
		Write(w)
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	fin, err := s.records.Financials(r.Context(), actorFrom(r), kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewResponse().JSON(fin).Write(w)
}

func (s *Server) handleCyclePaymentStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, log.OpStatusChange, err)
		return
	}
	rec, err := s.records.CyclePaymentStatus(r.Context(), actorFrom(r), kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpStatusChange, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.statusChanges, 1)
	s.invalidateReports()
	NewResponse().
		TriggerRecordsChanged(kind.String()).
		TriggerNotification(NotificationSuccess, "Payment status: "+rec.PaymentStatus.String(), 3000).
		JSON(recordView(rec)).
		Write(w)
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request) {
	q, err := s.records.ConvertToQuotation(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpConvert, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.recordsCreated, 1)
	s.invalidateReports()
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/"+core.KindQuotation.String()+"/"+q.ID).
		TriggerRecordsChanged(core.KindQuotation.String()).
		JSON(recordView(q)).
		Write(w)
}

func recordView(r core.Record) services.RecordView {
	return services.RecordView{Record: r, Financials: core.ComputeFinancials(r)}
}

package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledger/internal/log"
	"ledger/internal/sheets"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	limits := s.rateLimiter.GetMetrics()
	requests := s.traceMiddleware.GetMetrics()
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": limits.ClientCount,
			"rejected":       limits.TotalHits,
		},
		"requests": map[string]any{
			"total":              requests.TotalRequests,
			"average_latency_us": requests.AverageResponseTime,
		},
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "not_configured"
	default:
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["storage"] = "failed"
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Dashboard(r.Context(), ownerID(r.Context()))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := s.decodeRecordBody(w, r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	kind, owner := kindFrom(ctx), ownerID(ctx)
	if body.Payload != nil {
		rec, err := s.ledger.AddPayload(ctx, kind, owner, *body.Payload)
		if err != nil {
			s.writeError(w, r, log.OpCreate, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
		return
	}

	rec, err := s.ledger.Add(ctx, kind, owner, body.EncryptedData)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := s.ledger.List(ctx, kindFrom(ctx), ownerID(ctx))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	entries, err := s.ledger.Entries(ctx, kindFrom(ctx), ownerID(ctx), period)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	summary, err := s.ledger.Summary(ctx, kindFrom(ctx), ownerID(ctx), period)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := kindFrom(ctx)
	period, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	entries, err := s.ledger.Entries(ctx, kind, ownerID(ctx), period)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, kind, entries); err != nil {
		s.writeError(w, r, log.OpExport, fmt.Errorf("render %s export: %w", kind, err))
		return
	}

	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sheets.FileName(kind)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := s.ledger.Get(ctx, kindFrom(ctx), ownerID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := s.decodeRecordBody(w, r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	kind, owner, id := kindFrom(ctx), ownerID(ctx), chi.URLParam(r, "id")
	if body.Payload != nil {
		rec, err := s.ledger.UpdatePayload(ctx, kind, owner, id, *body.Payload)
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	rec, err := s.ledger.Update(ctx, kind, owner, id, body.EncryptedData)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := kindFrom(ctx)
	if err := s.ledger.Delete(ctx, kind, ownerID(ctx), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": kind.String() + " deleted"})
}

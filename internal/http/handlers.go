package http

import (
	"context"
	"net/http"
	"time"

	applog "moneyflow/internal/log"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.api.Ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable", Security: s.metrics.snapshot()})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Security: s.metrics.snapshot()})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseHistoryQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	txs, err := s.api.History(r.Context(), q.Filter, q.Sort)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Count:        len(txs),
		Sort:         q.Sort.String(),
		Transactions: transactionDTOs(txs, s.loc),
	})
}

func (s *Server) handleGroupedTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseHistoryQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	groups, err := s.api.GroupedHistory(r.Context(), q.Filter, q.Sort)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupedResponse(groups, s.loc))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}
	tx, err := s.api.Transaction(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionDTO(tx, s.loc))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	raw, err := DecodeRawTransaction(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tx, err := s.api.Ingest(r.Context(), raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, newTransactionDTO(tx, s.loc))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.api.Analytics(r.Context(), period)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalyticsDTO(a))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.api.Dashboard(r.Context(), period)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Analytics: newAnalyticsDTO(d.Analytics),
		Recent:    transactionDTOs(d.Recent, s.loc),
	})
}

// fail maps err to a status code and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeInternal,
			applog.FieldPath, r.URL.Path)
		writeError(w, status, http.StatusText(status))
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", applog.FieldError, err, applog.FieldStatusCode, status)
	writeError(w, status, err.Error())
}

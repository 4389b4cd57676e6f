package http

import (
	"net/http"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := ParseUserIDParam(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.services.Transactions.List(r.Context(), ParsePageParams(query), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(page).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.services.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := transactionInput(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.services.Transactions.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := transactionPatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.services.Transactions.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Transactions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	MessageResponse("Transaction deleted").Write(w)
}

// handleOverview serves the per-type and per-category totals of a month.
// year and month default to the current month.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := ParseUserIDParam(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params := ParseMonthParams(query)
	ov, err := s.services.Transactions.Overview(r.Context(), params.Year, params.Month, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(ov).Write(w)
}

package http

import (
	"net/http"

	"ledger/internal/services"
)

// The transaction type catalog is readable without a session. Writes are
// for administrators.

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.services.Types.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(types).Write(w)
}

func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.services.Types.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleCreateType(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, machineName, err := namePatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in services.TypeInput
	if name != nil {
		in.Name = *name
	}
	if machineName != nil {
		in.MachineName = *machineName
	}
	t, err := s.services.Types.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(t).Write(w)
}

func (s *Server) handleUpdateType(w http.ResponseWriter, r *http.Request) {
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
	name, machineName, err := namePatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.services.Types.Update(r.Context(), id, services.TypePatch{Name: name, MachineName: machineName})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleDeleteType(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Types.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	MessageResponse("Transaction type deleted").Write(w)
}

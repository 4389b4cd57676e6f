package http

import (
	"net/http"

	"ledger/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := s.services.Categories.List(r.Context(), ParsePageParams(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(page).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.services.Categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
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

	var in services.CategoryInput
	if name != nil {
		in.Name = *name
	}
	if machineName != nil {
		in.MachineName = *machineName
	}
	c, err := s.services.Categories.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
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

	c, err := s.services.Categories.Update(r.Context(), id, services.CategoryPatch{Name: name, MachineName: machineName})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	MessageResponse("Category deleted").Write(w)
}

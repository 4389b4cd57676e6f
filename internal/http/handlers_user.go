package http

import (
	"net/http"

	"ledger/internal/services"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email, _, err := body.String("email")
	if err != nil {
		writeError(w, r, err)
		return
	}
	password, _, err := body.Secret("password")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.services.Users.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(result).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.services.Users.Me(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(u).Write(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(users).Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	password, _, err := body.Secret("password")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := services.UserInput{
		Email:    body.Get("email"),
		Password: password,
		Name:     body.Get("name"),
		Role:     body.Get("role"),
	}

	u, err := s.services.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(u).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.services.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(u).Write(w)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
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
	patch, err := userPatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.services.Users.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(u).Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	MessageResponse("User deleted").Write(w)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	page, err := s.services.Activity.List(r.Context(), ParsePageParams(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(page).Write(w)
}

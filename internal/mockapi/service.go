// Package mockapi serves the users REST collection from memory, the way
// MockAPI or json-server would.
package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/userdesk/internal/core"
)

type userRepo interface {
	List() []core.User
	ByID(id string) (core.User, error)
	Create(u core.User) core.User
	Replace(id string, u core.User) (core.User, error)
	Delete(id string) error
}

type Service struct {
	repo userRepo
}

func NewService(r userRepo) *Service {
	return &Service{repo: r}
}

// Routes mounts the collection at /users.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/users", s.ListHandler)
	r.Post("/users", s.CreateHandler)
	r.Get("/users/{id}", s.GetHandler)
	r.Put("/users/{id}", s.UpdateHandler)
	r.Delete("/users/{id}", s.DeleteHandler)
	return r
}

func (s *Service) ListHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.List())
}

func (s *Service) GetHandler(w http.ResponseWriter, r *http.Request) {
	u, err := s.repo.ByID(chi.URLParam(r, "id"))
	if err != nil {
		repoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Service) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in core.User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	writeJSON(w, http.StatusCreated, s.repo.Create(in))
}

func (s *Service) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var in core.User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.repo.Replace(chi.URLParam(r, "id"), in)
	if err != nil {
		repoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Service) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(chi.URLParam(r, "id")); err != nil {
		repoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func repoError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		httpError(w, http.StatusNotFound, "user_not_found")
		return
	}
	httpError(w, http.StatusInternalServerError, "internal")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

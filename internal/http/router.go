package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/labstack/gommon/log"

	"example.com/userdesk/internal/form"
	"example.com/userdesk/internal/gateway"
	"example.com/userdesk/internal/http/middleware"
	"example.com/userdesk/internal/mockapi"
	"example.com/userdesk/internal/platform/jwt"
	"example.com/userdesk/internal/repo"
	"example.com/userdesk/internal/ui"
)

// Deps are the collaborators of the web UI.
type Deps struct {
	Gateway  gateway.Gateway
	Schema   form.Validator
	Tokens   jwt.Signer
	Sessions *ui.Sessions
	Log      *log.Logger
}

// Build returns the web UI handler.
func Build(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Themes)

	pages := ui.New(d.Gateway, d.Schema, d.Tokens, d.Sessions, d.Log)

	r.Get("/", pages.ListHandler)
	r.Get("/users", pages.ListHandler)

	r.Get("/users/add", pages.AddHandler)
	r.Post("/users/add", pages.SubmitAddHandler)
	r.Get("/users/edit/{id}", pages.EditHandler)
	r.Post("/users/edit/{id}", pages.SubmitEditHandler)
	r.Post("/forms/close", pages.CloseFormHandler)

	r.Get("/users/delete/{id}", pages.DeleteHandler)
	r.Post("/users/delete/{id}", pages.ConfirmDeleteHandler)

	r.Post("/theme", pages.ThemeHandler)

	// Unknown pages fall back to the list.
	r.NotFound(pages.ListHandler)

	return r
}

// BuildMockAPI returns the in-memory users backend handler.
func BuildMockAPI(store *repo.UserMem, l *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(l))
	r.Use(chimw.Recoverer)
	r.Mount("/", mockapi.NewService(store).Routes())
	return r
}

// Package ui renders the user pages and turns form posts into controller
// calls.
package ui

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/labstack/gommon/log"

	"example.com/userdesk/internal/core"
	"example.com/userdesk/internal/form"
	"example.com/userdesk/internal/gateway"
	"example.com/userdesk/internal/http/middleware"
	"example.com/userdesk/internal/listview"
	"example.com/userdesk/internal/platform/jwt"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type field struct {
	Name  string
	Label string
	Type  string
}

var formFields = []field{
	{core.FieldFirstName, "First Name", "text"},
	{core.FieldLastName, "Last Name", "text"},
	{core.FieldEmail, "Email", "email"},
	{core.FieldRole, "Role", "text"},
	{core.FieldPhone, "Phone", "tel"},
}

type UI struct {
	gw       gateway.Gateway
	schema   form.Validator
	tokens   jwt.Signer
	sessions *Sessions
	log      *log.Logger
}

func New(gw gateway.Gateway, v form.Validator, tokens jwt.Signer, sessions *Sessions, l *log.Logger) *UI {
	return &UI{gw: gw, schema: v, tokens: tokens, sessions: sessions, log: l}
}

type page struct {
	Title   string
	Theme   middleware.Theme
	Path    string
	Flash   string
	Error   string
	Message string
	Rows    []core.User
	ID      string
	Form    *formPage
}

type formPage struct {
	Action   string
	Token    string
	Saving   bool
	Disabled bool
	Inputs   []input
}

type input struct {
	field
	Value string
	Error string
}

func (u *UI) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	p.Theme = middleware.ThemeFrom(r.Context())
	p.Path = r.URL.Path

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, p); err != nil {
		u.log.Errorf("render %s: %s", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (u *UI) message(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	u.render(w, r, status, "message", page{Title: title, Message: msg})
}

// ListHandler shows every user with edit and delete actions.
func (u *UI) ListHandler(w http.ResponseWriter, r *http.Request) {
	lv := listview.New(u.gw)
	defer lv.Close()

	p := page{Title: "Users"}
	if r.URL.Query().Get("deleted") == "1" {
		p.Flash = "User deleted."
	}
	status := http.StatusOK
	if err := lv.Load(r.Context()); err != nil {
		u.log.Warnf("list users: %s", err)
		p.Error = "Could not load users. Please try again."
		status = http.StatusBadGateway
	}
	p.Rows = lv.Rows()
	u.render(w, r, status, "list", p)
}

// AddHandler renders an empty form.
func (u *UI) AddHandler(w http.ResponseWriter, r *http.Request) {
	u.openForm(w, r, form.New(u.gw, u.schema, ""), http.StatusOK, "")
}

// EditHandler loads the user and renders the filled-in form.
func (u *UI) EditHandler(w http.ResponseWriter, r *http.Request) {
	c := form.New(u.gw, u.schema, chi.URLParam(r, "id"))
	if err := c.Load(r.Context()); err != nil {
		u.loadFailed(w, r, err)
		return
	}
	u.openForm(w, r, c, http.StatusOK, "")
}

func (u *UI) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		u.message(w, r, http.StatusNotFound, "User not found", "This user no longer exists.")
		return
	}
	u.log.Warnf("load user: %s", err)
	u.message(w, r, http.StatusBadGateway, "Something went wrong", "Could not load the user. Please try again.")
}

func (u *UI) openForm(w http.ResponseWriter, r *http.Request, c *form.Controller, status int, flash string) {
	formID := u.sessions.Add(c)
	token, err := u.tokens.SignForm(formID, c.ID())
	if err != nil {
		u.sessions.Close(formID)
		u.log.Errorf("sign form token: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	u.renderForm(w, r, status, c.View(), token, flash)
}

func (u *UI) renderForm(w http.ResponseWriter, r *http.Request, status int, v form.View, token, flash string) {
	p := page{Title: "Add New User", Flash: flash}
	fp := &formPage{
		Action:   "/users/add",
		Token:    token,
		Saving:   v.State == form.Submitting,
		Disabled: v.Disabled(),
	}
	if v.Editing {
		p.Title = "Edit User"
		fp.Action = "/users/edit/" + url.PathEscape(v.Values.ID)
	}
	for _, f := range formFields {
		fp.Inputs = append(fp.Inputs, input{field: f, Value: v.Values.Get(f.Name), Error: v.Fields[f.Name]})
	}
	if v.Err != nil {
		p.Error = describe(v.Err)
	}
	p.Form = fp
	u.render(w, r, status, "form", p)
}

func describe(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "This user no longer exists."
	case errors.Is(err, core.ErrRequestFailed):
		return "Could not save the user. Please try again."
	}
	return "Something went wrong. Please try again."
}

func bind(values url.Values) core.User {
	var user core.User
	for _, name := range core.Fields {
		user = user.With(name, values.Get(name))
	}
	return user
}

// SubmitAddHandler handles the post of the add form.
func (u *UI) SubmitAddHandler(w http.ResponseWriter, r *http.Request) {
	u.submit(w, r, "")
}

// SubmitEditHandler handles the post of the edit form.
func (u *UI) SubmitEditHandler(w http.ResponseWriter, r *http.Request) {
	u.submit(w, r, chi.URLParam(r, "id"))
}

func (u *UI) submit(w http.ResponseWriter, r *http.Request, recordID string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get("token")
	in := bind(r.PostForm)

	c := u.lookup(token, recordID)
	if c == nil {
		u.reopen(w, r, recordID, in)
		return
	}

	// The call must outlive the request: a client going away does not cancel it.
	err := c.Submit(context.WithoutCancel(r.Context()), in)

	var verr *core.ValidationError
	switch {
	case err == nil:
		if saved, ok := c.Result(); ok {
			u.log.Infof("saved user %s (%s)", saved.ID, saved.FullName())
		}
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	case errors.Is(err, form.ErrCompleted), errors.Is(err, form.ErrStale), errors.Is(err, form.ErrClosed):
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	case errors.As(err, &verr):
		u.renderForm(w, r, http.StatusUnprocessableEntity, c.View(), token, "")
	case errors.Is(err, form.ErrInFlight):
		u.renderForm(w, r, http.StatusConflict, c.View(), token, "")
	case errors.Is(err, form.ErrNotReady):
		u.message(w, r, http.StatusConflict, "Please wait", "The user is still loading.")
	case errors.Is(err, core.ErrNotFound):
		u.message(w, r, http.StatusNotFound, "User not found", "This user no longer exists.")
	default:
		u.log.Warnf("save user %q: %s", recordID, err)
		u.renderForm(w, r, http.StatusBadGateway, c.View(), token, "")
	}
}

// lookup finds the controller that rendered the posted form. The token must
// have been issued for the record the form is posted to.
func (u *UI) lookup(token, recordID string) *form.Controller {
	claims, err := u.tokens.ParseForm(token)
	if err != nil || claims.RecordID != recordID {
		return nil
	}
	c, ok := u.sessions.Get(claims.FormID)
	if !ok {
		return nil
	}
	return c
}

// reopen starts a new session for a post whose session expired, keeping the
// values the user typed. Nothing is submitted.
func (u *UI) reopen(w http.ResponseWriter, r *http.Request, recordID string, in core.User) {
	c := form.New(u.gw, u.schema, recordID)
	if err := c.Load(r.Context()); err != nil {
		u.loadFailed(w, r, err)
		return
	}
	formID := u.sessions.Add(c)
	token, err := u.tokens.SignForm(formID, recordID)
	if err != nil {
		u.sessions.Close(formID)
		u.log.Errorf("sign form token: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	v := c.View()
	in.ID = recordID
	v.Values = in
	u.renderForm(w, r, http.StatusBadRequest, v, token, "This form has expired. Please check the values and save again.")
}

// CloseFormHandler drops the posted form's session and goes back to the list.
func (u *UI) CloseFormHandler(w http.ResponseWriter, r *http.Request) {
	if claims, err := u.tokens.ParseForm(r.FormValue("token")); err == nil {
		u.sessions.Close(claims.FormID)
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// DeleteHandler asks for confirmation. Nothing is sent to the backend.
func (u *UI) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	u.render(w, r, http.StatusOK, "confirm", page{Title: "Confirm Delete", ID: chi.URLParam(r, "id")})
}

// ConfirmDeleteHandler deletes the user and shows the reloaded list. When
// the delete fails the list is shown as the backend still has it.
func (u *UI) ConfirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	lv := listview.New(u.gw)
	defer lv.Close()

	lv.RequestDelete(chi.URLParam(r, "id"))
	err := lv.Confirm(ctx)
	if err == nil {
		u.render(w, r, http.StatusOK, "list", page{Title: "Users", Flash: "User deleted.", Rows: lv.Rows()})
		return
	}

	p := page{Title: "Users"}
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, listview.ErrReload):
		u.log.Warnf("delete user: %s", err)
		u.message(w, r, status, "User deleted", "The list could not be reloaded. Please refresh.")
		return
	case errors.Is(err, core.ErrNotFound):
		p.Error = "This user no longer exists."
		status = http.StatusNotFound
	default:
		u.log.Warnf("delete user: %s", err)
		p.Error = "Could not delete the user. Please try again."
	}

	// Nothing was deleted, so the current list is the one to show.
	if lerr := lv.Load(ctx); lerr != nil {
		u.log.Warnf("list users: %s", lerr)
		u.message(w, r, status, "Users", p.Error)
		return
	}
	p.Rows = lv.Rows()
	u.render(w, r, status, "list", p)
}

// ThemeHandler flips the theme cookie and returns to the page it came from.
func (u *UI) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	next := middleware.ThemeFrom(r.Context()).Toggle()
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.ThemeCookie,
		Value:    string(next),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	back := r.FormValue("back")
	if !localPath(back) {
		back = "/users"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// localPath reports whether p stays on this site. Browsers read a backslash
// as a slash, so "/\host" counts as offsite.
func localPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

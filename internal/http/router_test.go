package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/userdesk/internal/gateway"
	"example.com/userdesk/internal/http/middleware"
	"example.com/userdesk/internal/platform/jwt"
	"example.com/userdesk/internal/platform/logger"
	"example.com/userdesk/internal/repo"
	"example.com/userdesk/internal/schema"
	"example.com/userdesk/internal/ui"
)

var tokenRe = regexp.MustCompile(`name="token" value="([^"]+)"`)

type app struct {
	h        http.Handler
	store    *repo.UserMem
	sessions *ui.Sessions
}

func newApp(t *testing.T, ttl time.Duration) *app {
	t.Helper()
	return newAppWithBackend(t, ttl, func(h http.Handler) http.Handler { return h })
}

// newAppWithBackend lets wrap intercept requests to the mock backend.
func newAppWithBackend(t *testing.T, ttl time.Duration, wrap func(http.Handler) http.Handler) *app {
	t.Helper()
	store := repo.NewUserMem(repo.SampleUsers()...)
	backend := httptest.NewServer(wrap(BuildMockAPI(store, logger.Null())))
	t.Cleanup(backend.Close)

	gw, err := gateway.New(backend.URL + "/users")
	require.NoError(t, err)
	tokens, err := jwt.NewHS256([]byte("test"), ttl)
	require.NoError(t, err)
	sessions := ui.NewSessions(ttl)

	h := Build(Deps{
		Gateway:  gw,
		Schema:   schema.NewHolder(schema.MustDefault()),
		Tokens:   tokens,
		Sessions: sessions,
		Log:      logger.Null(),
	})
	return &app{h: h, store: store, sessions: sessions}
}

func (a *app) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (a *app) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, body string) string {
	t.Helper()
	m := tokenRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "no form token in page")
	return m[1]
}

func userForm(tok string) url.Values {
	return url.Values{
		"token":     {tok},
		"firstName": {"Ann"},
		"lastName":  {"Lee"},
		"email":     {"ann@example.com"},
		"phone":     {"+919998887776"},
		"role":      {"ops"},
	}
}

func TestList(t *testing.T) {
	a := newApp(t, time.Minute)

	for _, path := range []string{"/", "/users", "/no/such/page"} {
		rec := a.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "asha.rao@example.com", path)
		assert.Contains(t, rec.Body.String(), `href="/users/edit/2"`, path)
	}
}

func TestList_Empty(t *testing.T) {
	a := newApp(t, time.Minute)
	require.NoError(t, a.store.Delete("1"))
	require.NoError(t, a.store.Delete("2"))

	assert.Contains(t, a.get("/users").Body.String(), "No users found")
}

func TestAdd_CreatesOnce(t *testing.T) {
	a := newApp(t, time.Minute)

	page := a.get("/users/add")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Add New User")
	tok := token(t, page.Body.String())

	rec := a.post("/users/add", userForm(tok))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	require.Equal(t, 3, a.store.Len())

	created, err := a.store.ByID("3")
	require.NoError(t, err)
	assert.Equal(t, "9998887776", created.Phone)

	// A repeated post of the same page does not create another user.
	rec = a.post("/users/add", userForm(tok))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 3, a.store.Len())
}

func TestAdd_ValidationErrors(t *testing.T) {
	a := newApp(t, time.Minute)
	tok := token(t, a.get("/users/add").Body.String())

	form := userForm(tok)
	form.Set("firstName", "")
	form.Set("email", "not-an-email")
	rec := a.post("/users/add", form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "First name is required")
	assert.Contains(t, body, "Invalid email")
	assert.Contains(t, body, `value="Lee"`)
	assert.Equal(t, 2, a.store.Len())

	// The same page can be fixed and saved.
	form.Set("firstName", "Ann")
	form.Set("email", "ann@example.com")
	rec = a.post("/users/add", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 3, a.store.Len())
}

func TestEdit_RoundTrip(t *testing.T) {
	a := newApp(t, time.Minute)

	page := a.get("/users/edit/2")
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "Edit User")
	assert.Contains(t, body, `value="John"`)
	assert.Contains(t, body, `action="/users/edit/2"`)

	form := userForm(token(t, body))
	form.Set("firstName", "Johnny")
	rec := a.post("/users/edit/2", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := a.store.ByID("2")
	require.NoError(t, err)
	assert.Equal(t, "Johnny", got.FirstName)
	assert.Equal(t, 2, a.store.Len())
}

func TestEdit_TokenForOtherRecord(t *testing.T) {
	a := newApp(t, time.Minute)
	tok := token(t, a.get("/users/edit/2").Body.String())

	rec := a.post("/users/edit/1", userForm(tok))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This form has expired")

	got, err := a.store.ByID("1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.FirstName)
}

func TestEdit_NotFound(t *testing.T) {
	a := newApp(t, time.Minute)

	rec := a.get("/users/edit/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "This user no longer exists.")
}

func TestSubmit_ExpiredSessionKeepsValues(t *testing.T) {
	a := newApp(t, time.Minute)
	tok := token(t, a.get("/users/add").Body.String())
	require.Equal(t, 1, a.sessions.Len())

	form := userForm(tok)
	form.Set("token", "garbage")
	rec := a.post("/users/add", form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "This form has expired")
	assert.Contains(t, body, `value="ann@example.com"`)
	assert.Equal(t, 2, a.store.Len())
	assert.NotEqual(t, tok, token(t, body))
}

func TestCloseForm(t *testing.T) {
	a := newApp(t, time.Minute)
	tok := token(t, a.get("/users/add").Body.String())
	require.Equal(t, 1, a.sessions.Len())

	rec := a.post("/forms/close", url.Values{"token": {tok}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, a.sessions.Len())
}

func TestDelete_Confirm(t *testing.T) {
	a := newApp(t, time.Minute)

	page := a.get("/users/delete/1")
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Are you sure you want to delete this user?")
	assert.Equal(t, 2, a.store.Len())

	rec := a.post("/users/delete/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "User deleted.")
	assert.NotContains(t, body, "asha.rao@example.com")
	assert.Contains(t, body, "john.doe@example.com")
	assert.Equal(t, 1, a.store.Len())
}

func TestDelete_Missing(t *testing.T) {
	a := newApp(t, time.Minute)

	rec := a.post("/users/delete/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "This user no longer exists.")
	assert.Contains(t, body, "asha.rao@example.com")
	assert.Equal(t, 2, a.store.Len())
}

func TestTheme_Toggle(t *testing.T) {
	a := newApp(t, time.Minute)

	rec := a.post("/theme", url.Values{"back": {"/users/add"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/add", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, string(middleware.Dark), cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(cookies[0])
	page := httptest.NewRecorder()
	a.h.ServeHTTP(page, req)
	assert.Contains(t, page.Body.String(), `<body class="dark">`)
}

func TestTheme_RejectsOffsiteBack(t *testing.T) {
	a := newApp(t, time.Minute)

	for _, back := range []string{
		"//evil.example.com",
		"/\\evil.example",
		"/\\/evil.example",
		"https://evil.example.com",
		"evil.example.com",
		"",
	} {
		rec := a.post("/theme", url.Values{"back": {back}})
		assert.Equal(t, http.StatusSeeOther, rec.Code, back)
		assert.Equal(t, "/users", rec.Header().Get("Location"), back)
	}
}

func TestDelete_ReloadFails(t *testing.T) {
	a := newAppWithBackend(t, time.Minute, func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/users" {
				http.Error(w, "down", http.StatusInternalServerError)
				return
			}
			h.ServeHTTP(w, r)
		})
	})

	rec := a.post("/users/delete/1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "The list could not be reloaded. Please refresh.")
	assert.NotContains(t, body, "No users found")
	assert.Equal(t, 1, a.store.Len())
}

func TestDelete_MissingAndListDown(t *testing.T) {
	a := newAppWithBackend(t, time.Minute, func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/users" {
				http.Error(w, "down", http.StatusInternalServerError)
				return
			}
			h.ServeHTTP(w, r)
		})
	})

	rec := a.post("/users/delete/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "This user no longer exists.")
	assert.NotContains(t, body, "No users found")
}

func TestBackendDown(t *testing.T) {
	gw, err := gateway.New("http://127.0.0.1:1/users", gateway.WithTimeout(time.Second))
	require.NoError(t, err)
	tokens, err := jwt.NewHS256(nil, time.Minute)
	require.NoError(t, err)
	h := Build(Deps{
		Gateway:  gw,
		Schema:   schema.MustDefault(),
		Tokens:   tokens,
		Sessions: ui.NewSessions(time.Minute),
		Log:      logger.Null(),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not load users. Please try again.")
}

func TestList_DeletedFlash(t *testing.T) {
	a := newApp(t, time.Minute)

	assert.Contains(t, a.get("/users?deleted=1").Body.String(), "User deleted.")
	assert.NotContains(t, a.get("/users").Body.String(), "User deleted.")
}

package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/tests"
)

type testApp struct {
	server  *echoapi.Server
	users   user.Repository
	courses course.Repository
	mailSvc *emailsvc.ConsoleServiceMock
}

func newTestApp(t *testing.T) *testApp {
	conf := &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Address: "noreply@localhost"},
		Server: core.ServerConfig{
			DisableReqLogs: true,
			SessionMaxAge:  time.Hour,
		},
	}
	logger := new(testutil.Logger)

	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	user.RegisterValidators(validate, translator)
	course.RegisterValidators(validate, translator)

	db := testutil.OpenDB(t)
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	stats := inmemdb.NewStatsRepository(db)
	crsSvc := course.NewService(crsRepo, stats, validate)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	server := echoapi.NewServer(echoapi.Deps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		MailSvc:    mailSvc,
		Users:      usrRepo,
		Courses:    crsSvc,
		Wizards:    course.NewWizards(crsSvc, 0, 0),
		Dashboards: dashboard.NewService(crsRepo, stats),
	})
	return &testApp{server: server, users: usrRepo, courses: crsRepo, mailSvc: mailSvc}
}

// browser sends requests to the app keeping the cookies it is given, like a browser would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
	headers map[string]string
}

func (app *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie), headers: make(map[string]string)}
}

func (b *browser) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.server.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) login(email string) {
	rec := b.do(http.MethodPost, "/login", echo.Map{"email": email, "password": testutil.SeedPassword})
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, to, rec.Header().Get("Location"))
}

type page struct {
	Page  string          `json:"page"`
	Title string          `json:"title"`
	Theme string          `json:"theme"`
	User  *user.User      `json:"user"`
	Data  json.RawMessage `json:"data"`
}

func getPage(t *testing.T, b *browser, path string) page {
	t.Helper()
	rec := b.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p page
	decode(t, rec, &p)
	return p
}

func TestServer_Guards(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name  string
		email string
		path  string
		want  string
	}{
		{name: "root", path: "/", want: "/dashboard"},
		{name: "unknown page", path: "/nope/nope", want: "/dashboard"},
		{name: "anonymous dashboard", path: "/dashboard", want: "/login"},
		{name: "anonymous lesson", path: "/courses/1/lessons/1-1", want: "/login"},
		{name: "anonymous instructor", path: "/instructor/courses", want: "/login"},
		{name: "student on login", email: testutil.StudentEmail, path: "/login", want: "/dashboard"},
		{name: "student on instructor", email: testutil.StudentEmail, path: "/instructor/dashboard", want: "/dashboard"},
		{name: "instructor on student", email: testutil.InstructorEmail, path: "/courses", want: "/instructor/dashboard"},
		{name: "instructor on register", email: testutil.InstructorEmail, path: "/register", want: "/instructor/dashboard"},
		{name: "missing course", email: testutil.StudentEmail, path: "/courses/404", want: "/courses"},
		{name: "draft course of another", email: testutil.StudentEmail, path: "/courses/6", want: "/courses"},
		{name: "missing lesson", email: testutil.StudentEmail, path: "/courses/1/lessons/404", want: "/courses/1"},
		{name: "edit foreign course", email: testutil.InstructorEmail, path: "/instructor/courses/4/edit", want: "/instructor/courses"},
		{name: "edit missing course", email: testutil.InstructorEmail, path: "/instructor/courses/404/edit", want: "/instructor/courses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := app.browser(t)
			if tt.email != "" {
				b.login(tt.email)
			}
			checkRedirect(t, b.do(http.MethodGet, tt.path, nil), tt.want)
		})
	}

	t.Run("anonymous login page", func(t *testing.T) {
		p := getPage(t, app.browser(t), "/login")
		assert.Equal(t, "login", p.Page)
		assert.Equal(t, "Login", p.Title)
		assert.Nil(t, p.User)
	})
}

func TestServer_Session(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	t.Run("invalid credentials", func(t *testing.T) {
		rec := b.do(http.MethodPost, "/login", echo.Map{"email": testutil.StudentEmail, "password": "wrong"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp echoapi.SessionResponse
		decode(t, rec, &resp)
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid email or password", resp.Error)
		assert.Empty(t, b.cookies)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := b.do(http.MethodPost, "/login", echo.Map{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"email":"this field is required","password":"this field is required"}`, rec.Body.String())
	})

	t.Run("login", func(t *testing.T) {
		rec := b.do(http.MethodPost, "/login", echo.Map{"email": " JOHN@example.com ", "password": testutil.SeedPassword})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.SessionResponse
		decode(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "/dashboard", resp.Redirect)
		require.NotNil(t, resp.User)
		assert.Equal(t, testutil.StudentID, resp.User.ID)
		assert.Contains(t, b.cookies, core.SessionStorageKey)
		assert.True(t, b.cookies[core.SessionStorageKey].HttpOnly)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("dashboard", func(t *testing.T) {
		p := getPage(t, b, "/dashboard")
		assert.Equal(t, "dashboard", p.Page)
		require.NotNil(t, p.User)
		assert.Equal(t, "John Doe", p.User.Name)

		var dash dashboard.Student
		require.NoError(t, json.Unmarshal(p.Data, &dash))
		assert.Len(t, dash.Enrolled, 3)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		evil := app.browser(t)
		c := *b.cookies[core.SessionStorageKey]
		c.Value += "x"
		evil.cookies[c.Name] = &c
		checkRedirect(t, evil.do(http.MethodGet, "/dashboard", nil), "/login")
	})

	t.Run("logout", func(t *testing.T) {
		rec := b.do(http.MethodPost, "/logout", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, b.cookies, core.SessionStorageKey)
		checkRedirect(t, b.do(http.MethodGet, "/dashboard", nil), "/login")
	})
}

func TestServer_Register(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		body     echo.Map
		wantCode int
		wantErr  string
		wantHome string
	}{
		{
			name:     "invalid input",
			body:     echo.Map{"name": " ", "email": "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "email in use",
			body:     echo.Map{"name": "John", "email": testutil.StudentEmail, "password": "secret"},
			wantCode: http.StatusBadRequest,
			wantErr:  "Email already in use",
		},
		{
			name:     "student",
			body:     echo.Map{"name": "Amani", "email": "amani@example.com", "password": "secret"},
			wantCode: http.StatusOK,
			wantHome: "/dashboard",
		},
		{
			name:     "instructor",
			body:     echo.Map{"name": "Baraka", "email": "baraka@example.com", "password": "secret", "role": "instructor"},
			wantCode: http.StatusOK,
			wantHome: "/instructor/dashboard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := app.browser(t)
			rec := b.do(http.MethodPost, "/register", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				if tt.wantErr != "" {
					assert.Contains(t, rec.Body.String(), tt.wantErr)
				}
				return
			}

			var resp echoapi.SessionResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantHome, resp.Redirect)
			p := getPage(t, b, tt.wantHome)
			require.NotNil(t, p.User)
			assert.Equal(t, tt.body["email"], p.User.Email)
		})
	}

	t.Run("invalid input fields", func(t *testing.T) {
		rec := app.browser(t).do(http.MethodPost, "/register", echo.Map{"name": " ", "email": "nope"})
		var fields map[string]string
		decode(t, rec, &fields)
		assert.Equal(t, "this field cannot be blank", fields["name"])
		assert.Contains(t, fields, "email")
		assert.Equal(t, "this field is required", fields["password"])
	})
}

func TestServer_ForgotPassword(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	rec := b.do(http.MethodPost, "/forgot-password", echo.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email not found")

	rec = b.do(http.MethodPost, "/forgot-password", echo.Map{"email": testutil.StudentEmail})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Password reset email sent")

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, testutil.StudentEmail, sent[0].To[0].Address)
}

func TestServer_Theme(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.headers["Sec-CH-Prefers-Color-Scheme"] = `"dark"`

	rec := b.do(http.MethodGet, "/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())
	assert.Equal(t, "dark", rec.Header().Get("X-Theme"))

	rec = b.do(http.MethodPost, "/theme/toggle", nil)
	assert.JSONEq(t, `{"theme":"light"}`, rec.Body.String())
	assert.Equal(t, "light", rec.Header().Get("X-Theme"))

	// the stored choice wins over the platform preference
	rec = b.do(http.MethodGet, "/theme", nil)
	assert.JSONEq(t, `{"theme":"light"}`, rec.Body.String())

	rec = b.do(http.MethodPut, "/theme", echo.Map{"theme": "Dark"})
	assert.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())

	rec = b.do(http.MethodPut, "/theme", echo.Map{"theme": "blue"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"theme":"must be light or dark"}`, rec.Body.String())

	p := getPage(t, b, "/login")
	assert.Equal(t, "dark", p.Theme)
}

func TestServer_EditProfile(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.login(testutil.StudentEmail)

	tags := func(n int) []string {
		s := make([]string, n)
		for i := range s {
			s[i] = fmt.Sprintf("%02d%s", i, strings.Repeat("a", 28))
		}
		return s
	}

	tests := []struct {
		name     string
		body     echo.Map
		wantCode int
		wantBody string
	}{
		{
			name:     "bio too long",
			body:     echo.Map{"bio": strings.Repeat("a", 3000)},
			wantCode: http.StatusBadRequest,
			wantBody: `{"bio":"bio must be a maximum of 500 characters in length"}`,
		},
		{
			name:     "too many skills",
			body:     echo.Map{"skills": tags(11)},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "record over the cookie size",
			body: echo.Map{
				"name":      strings.Repeat("n", 100),
				"avatar":    "https://example.com/" + strings.Repeat("a", 270),
				"location":  strings.Repeat("l", 100),
				"website":   "https://example.com/" + strings.Repeat("w", 170),
				"bio":       strings.Repeat(`"`, 500),
				"skills":    tags(10),
				"interests": tags(10),
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"success":false,"error":"Profile is too large to be saved"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *b.cookies[core.SessionStorageKey]

			rec := b.do(http.MethodPut, "/profile/edit", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			assert.Empty(t, rec.Result().Cookies())
			assert.Equal(t, before.Value, b.cookies[core.SessionStorageKey].Value)

			stored, err := app.users.GetUserByID(context.Background(), testutil.StudentID)
			require.NoError(t, err)
			assert.Equal(t, "John Doe", stored.Name)
			assert.NotEqual(t, strings.Repeat(`"`, 500), stored.Bio)
		})
	}

	t.Run("update", func(t *testing.T) {
		rec := b.do(http.MethodPut, "/profile/edit", echo.Map{"bio": "Learning Go", "skills": tags(10)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.SessionResponse
		decode(t, rec, &resp)
		assert.Equal(t, "/profile", resp.Redirect)

		c, ok := b.cookies[core.SessionStorageKey]
		require.True(t, ok)
		assert.LessOrEqual(t, len(c.Name)+len(c.Value), 4000)

		p := getPage(t, b, "/profile/edit")
		require.NotNil(t, p.User)
		assert.Equal(t, "Learning Go", p.User.Bio)

		stored, err := app.users.GetUserByID(context.Background(), testutil.StudentID)
		require.NoError(t, err)
		assert.Equal(t, "Learning Go", stored.Bio)
	})
}

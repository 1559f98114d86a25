package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/anyhire/anyhire-server/internal/config"
	"github.com/anyhire/anyhire-server/internal/middleware"
	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "dev",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // bcrypt.MinCost keeps tests fast
	}
}

type fakeUsers struct {
	byID   map[uint64]model.User
	nextID uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uint64]model.User), nextID: 1}
}

func (f *fakeUsers) seed(t *testing.T, email, password, name, role string) model.User {
	t.Helper()
	id, err := f.Create(context.Background(), email, password, name, role, 4)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return f.byID[id]
}

func (f *fakeUsers) Create(_ context.Context, email, password, name, role string, cost int) (uint64, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := f.nextID
	f.nextID++
	f.byID[id] = model.User{ID: id, Email: email, PasswordHash: hash, Name: name, Role: role}
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for id := uint64(1); id < f.nextID; id++ {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeTokens struct {
	m           map[uint64]string
	stores      int
	unavailable bool
}

func newFakeTokens() *fakeTokens { return &fakeTokens{m: make(map[uint64]string)} }

func (f *fakeTokens) Store(_ context.Context, userID uint64, token string) error {
	if f.unavailable {
		return repository.ErrStoreUnavailable
	}
	f.m[userID] = token
	f.stores++
	return nil
}

func (f *fakeTokens) Fetch(_ context.Context, userID uint64) (string, error) {
	if f.unavailable {
		return "", repository.ErrStoreUnavailable
	}
	v, ok := f.m[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeTokens) Remove(_ context.Context, userID uint64) error {
	if f.unavailable {
		return repository.ErrStoreUnavailable
	}
	delete(f.m, userID)
	return nil
}

func newAuthTest() (*AuthHandler, *fakeUsers, *fakeTokens) {
	users := newFakeUsers()
	tokens := newFakeTokens()
	return NewAuthHandler(testConfig(), users, tokens), users, tokens
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestLoginSuccessSetsCookiesAndStoresRefresh(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"a@x.com","password":"correct"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("response accessToken is empty")
	}
	if resp.User.ID != seeded.ID || resp.User.Email != "a@x.com" {
		t.Errorf("response user = %+v", resp.User)
	}

	access := cookieByName(rec, middleware.AccessCookie)
	refresh := cookieByName(rec, RefreshCookie)
	if access == nil || access.Value == "" || refresh == nil || refresh.Value == "" {
		t.Fatal("auth cookies not set")
	}
	for _, ck := range []*http.Cookie{access, refresh} {
		if !ck.HttpOnly || ck.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie %s flags = httpOnly:%v sameSite:%v", ck.Name, ck.HttpOnly, ck.SameSite)
		}
	}
	if tokens.m[seeded.ID] != refresh.Value {
		t.Error("stored refresh token does not match the cookie value")
	}
}

func TestLoginFailureIsGenericAndSetsNoCookies(t *testing.T) {
	h, users, _ := newAuthTest()
	users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)

	// Wrong password and unknown email must be indistinguishable.
	for _, body := range []string{
		`{"email":"a@x.com","password":"wrong"}`,
		`{"email":"nobody@x.com","password":"correct"}`,
	} {
		rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), invalidCredentials) {
			t.Errorf("body = %s, want generic %q", rec.Body.String(), invalidCredentials)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("cookies set on failed login")
		}
	}
}

func TestSecondLoginOverwritesRefreshToken(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)

	doJSON(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"a@x.com","password":"correct"}`)
	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"a@x.com","password":"correct"}`)

	if tokens.stores != 2 {
		t.Errorf("store calls = %d, want 2", tokens.stores)
	}
	if len(tokens.m) != 1 {
		t.Fatalf("stored tokens = %d, want exactly 1 per user", len(tokens.m))
	}
	second := cookieByName(rec, RefreshCookie)
	if second == nil || tokens.m[seeded.ID] != second.Value {
		t.Error("stored token is not the second one issued")
	}
}

func TestRefreshMintsAccessWithoutRotation(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)
	refresh, err := utils.NewRefreshToken(testConfig().RefreshSecret, seeded.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	tokens.m[seeded.ID] = refresh.Token
	cookie := &http.Cookie{Name: RefreshCookie, Value: refresh.Token}

	// Refresh is not single-use: two calls in a row both succeed and the
	// stored refresh token never changes.
	for i := 0; i < 2; i++ {
		rec := doJSON(t, h.RefreshToken, http.MethodPost, "/v1/auth/refresh-token", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status = %d, want 200 (body %s)", i, rec.Code, rec.Body.String())
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["accessToken"] == "" {
			t.Errorf("call %d: no accessToken in response", i)
		}
		if cookieByName(rec, middleware.AccessCookie) == nil {
			t.Errorf("call %d: access cookie not set", i)
		}
		if cookieByName(rec, RefreshCookie) != nil {
			t.Errorf("call %d: refresh cookie was rotated", i)
		}
	}
	if tokens.m[seeded.ID] != refresh.Token {
		t.Error("stored refresh token changed on the refresh path")
	}
}

func TestRefreshRejectsSupersededToken(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)

	// Both tokens are signature-valid, but only the newer one is stored.
	old, _ := utils.NewRefreshToken(testConfig().RefreshSecret, seeded.ID, 6)
	current, _ := utils.NewRefreshToken(testConfig().RefreshSecret, seeded.ID, 7)
	tokens.m[seeded.ID] = current.Token

	rec := doJSON(t, h.RefreshToken, http.MethodPost, "/v1/auth/refresh-token", "",
		&http.Cookie{Name: RefreshCookie, Value: old.Token})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for superseded token", rec.Code)
	}
}

func TestRefreshMissingCookieIs401(t *testing.T) {
	h, _, _ := newAuthTest()
	rec := doJSON(t, h.RefreshToken, http.MethodPost, "/v1/auth/refresh-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshStoreOutageIs500NotLogout(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)
	refresh, _ := utils.NewRefreshToken(testConfig().RefreshSecret, seeded.ID, 7)
	tokens.unavailable = true

	rec := doJSON(t, h.RefreshToken, http.MethodPost, "/v1/auth/refresh-token", "",
		&http.Cookie{Name: RefreshCookie, Value: refresh.Token})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when session state is unknown", rec.Code)
	}
}

func TestLogoutWithoutCookieStillClearsAndSucceeds(t *testing.T) {
	h, _, _ := newAuthTest()

	rec := doJSON(t, h.Logout, http.MethodPost, "/v1/auth/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := cookieByName(rec, name)
		if ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
			t.Errorf("cookie %s not cleared: %+v", name, ck)
		}
	}
}

func TestLogoutRemovesStoredRefreshToken(t *testing.T) {
	h, users, tokens := newAuthTest()
	seeded := users.seed(t, "a@x.com", "correct", "Ada", model.RoleCustomer)
	refresh, _ := utils.NewRefreshToken(testConfig().RefreshSecret, seeded.ID, 7)
	tokens.m[seeded.ID] = refresh.Token

	rec := doJSON(t, h.Logout, http.MethodPost, "/v1/auth/logout", "",
		&http.Cookie{Name: RefreshCookie, Value: refresh.Token})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := tokens.m[seeded.ID]; ok {
		t.Error("stored refresh token survived logout")
	}
}

func TestRegisterNeverGrantsAdmin(t *testing.T) {
	h, users, _ := newAuthTest()

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"b@x.com","password":"pw","name":"Bo","role":"ADMIN"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	u, err := users.GetByEmail(context.Background(), "b@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleCustomer {
		t.Errorf("role = %q, want self-signup demoted to %q", u.Role, model.RoleCustomer)
	}
}

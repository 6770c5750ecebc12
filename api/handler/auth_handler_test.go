package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edufolio/api/handler"
	apiMiddleware "edufolio/api/middleware"
	"edufolio/api/routes"
	"edufolio/internal/entity"
	"edufolio/internal/service"
	"edufolio/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	seq   uint
	users map[uint]entity.User
}

func (m *stubUserRepo) Create(ctx context.Context, user *entity.User) error {
	m.seq++
	user.ID = m.seq
	m.users[user.ID] = *user
	return nil
}

func (m *stubUserRepo) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *stubUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (m *stubUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range m.users {
		if user.Email != nil && *user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (m *stubUserRepo) Update(ctx context.Context, user *entity.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *stubUserRepo) List(ctx context.Context) ([]entity.User, error) {
	users := make([]entity.User, 0, len(m.users))
	for id := uint(1); id <= m.seq; id++ {
		if user, ok := m.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

type stubTokenRepo struct {
	users *stubUserRepo
	rows  map[string]entity.RefreshToken
}

func (m *stubTokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	m.rows[t.Token] = *t
	return nil
}

func (m *stubTokenRepo) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	row, ok := m.rows[token]
	if !ok {
		return nil, nil
	}
	if owner, _ := m.users.FindByID(ctx, row.UserID); owner != nil {
		row.User = *owner
	}
	return &row, nil
}

func (m *stubTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	delete(m.rows, token)
	return nil
}

func (m *stubTokenRepo) DeleteAllByUser(ctx context.Context, userID uint) error {
	for token, row := range m.rows {
		if row.UserID == userID {
			delete(m.rows, token)
		}
	}
	return nil
}

func (m *stubTokenRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type stubCodeRepo struct {
	seq  uint
	rows map[uint]entity.EmailVerification
}

func (m *stubCodeRepo) Create(ctx context.Context, v *entity.EmailVerification) error {
	m.seq++
	v.ID = m.seq
	m.rows[v.ID] = *v
	return nil
}

func (m *stubCodeRepo) FindByEmailAndCode(ctx context.Context, email, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error) {
	for _, row := range m.rows {
		if row.Email == email && row.Code == code && row.Purpose == purpose {
			row := row
			return &row, nil
		}
	}
	return nil, nil
}

func (m *stubCodeRepo) FindByUserAndCode(ctx context.Context, userID uint, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error) {
	for _, row := range m.rows {
		if row.UserID != nil && *row.UserID == userID && row.Code == code && row.Purpose == purpose {
			row := row
			return &row, nil
		}
	}
	return nil, nil
}

func (m *stubCodeRepo) Delete(ctx context.Context, id uint) error {
	delete(m.rows, id)
	return nil
}

func (m *stubCodeRepo) DeleteByEmail(ctx context.Context, email string, purpose entity.VerificationPurpose) error {
	for id, row := range m.rows {
		if row.Email == email && row.Purpose == purpose {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *stubCodeRepo) DeleteByUser(ctx context.Context, userID uint, purpose entity.VerificationPurpose) error {
	for id, row := range m.rows {
		if row.UserID != nil && *row.UserID == userID && row.Purpose == purpose {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *stubCodeRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type stubEventRepo struct{}

func (stubEventRepo) Log(ctx context.Context, event *entity.AuthEvent) error { return nil }

type stubSender struct {
	lastCode string
}

func (s *stubSender) SendVerificationCode(ctx context.Context, to string, code string, purpose entity.VerificationPurpose) error {
	s.lastCode = code
	return nil
}

type apiFixture struct {
	app    *echo.Echo
	users  *stubUserRepo
	sender *stubSender
	auth   *service.AuthService
}

func newAPIFixture() *apiFixture {
	users := &stubUserRepo{users: make(map[uint]entity.User)}
	tokens := &stubTokenRepo{users: users, rows: make(map[string]entity.RefreshToken)}
	codes := &stubCodeRepo{rows: make(map[uint]entity.EmailVerification)}
	sender := &stubSender{}

	config := service.AuthConfig{
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		VerificationCodeTTL: 15 * time.Minute,
	}
	jwtManager := &utils.JWTManager{Secret: []byte("test-secret"), AccessTokenTTL: config.AccessTokenTTL}
	clock := service.RealClock{}

	tokenService := service.NewTokenService(tokens, jwtManager, clock, config)
	verificationService := service.NewVerificationService(users, codes, sender, clock, config)
	authService := service.NewAuthService(users, stubEventRepo{}, tokenService, verificationService, service.BcryptPasswordHasher{Cost: 4})

	authHandler := handler.NewAuthHandler(authService, validator.New())
	app := echo.New()
	router := routes.NewRouter(app, authHandler, apiMiddleware.AuthMiddleware{JWT: jwtManager})
	router.RegisterRoutes()

	return &apiFixture{app: app, users: users, sender: sender, auth: authService}
}

func (f *apiFixture) do(method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}
	return nil
}

func TestLoginSetsHTTPOnlyRefreshCookie(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/auth/register", `{"username":"teacher","password":"secret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/auth/login", `{"username":"teacher","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["access_token"])

	cookie := refreshCookie(t, rec)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.NotEmpty(t, cookie.Value)
}

func TestLoginWrongCredentialsIsUnauthorized(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(http.MethodPost, "/auth/login", `{"username":"ghost","password":"whatever1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateUsernameIsConflict(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/auth/register", `{"username":"teacher","password":"secret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, "/auth/register", `{"username":"teacher","password":"other-pass"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshRequiresCookie(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	reg := f.do(http.MethodPost, "/auth/register", `{"username":"teacher","password":"secret-pass"}`)
	cookie := refreshCookie(t, reg)
	require.NotNil(t, cookie)

	rec = f.do(http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["access_token"])
}

func TestLogoutClearsCookieAndRevokesToken(t *testing.T) {
	f := newAPIFixture()

	reg := f.do(http.MethodPost, "/auth/register", `{"username":"teacher","password":"secret-pass"}`)
	cookie := refreshCookie(t, reg)
	require.NotNil(t, cookie)

	var body map[string]any
	require.NoError(t, json.Unmarshal(reg.Body.Bytes(), &body))
	accessToken, _ := body["access_token"].(string)
	require.NotEmpty(t, accessToken)

	rec := f.do(http.MethodPost, "/auth/logout", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+accessToken)
		r.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	cleared := refreshCookie(t, rec)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	rec = f.do(http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newAPIFixture()

	reg := f.do(http.MethodPost, "/auth/register", `{"username":"mortal","password":"secret-pass"}`)
	var body map[string]any
	require.NoError(t, json.Unmarshal(reg.Body.Bytes(), &body))
	userToken, _ := body["access_token"].(string)

	rec := f.do(http.MethodGet, "/admin/users", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+userToken)
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Promote and log in again so the new role lands in the token.
	_, err := f.auth.UpdateUserRole(context.Background(), 1, entity.UserRoleAdmin)
	require.NoError(t, err)
	login := f.do(http.MethodPost, "/auth/login", `{"username":"mortal","password":"secret-pass"}`)
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &body))
	adminToken, _ := body["access_token"].(string)

	rec = f.do(http.MethodGet, "/admin/users", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+adminToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifiedRegistrationOverHTTP(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(http.MethodPost, "/auth/register/code", `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, f.sender.lastCode)

	rec = f.do(http.MethodPost, "/auth/register/verify",
		`{"email":"new@example.com","code":"`+f.sender.lastCode+`","password":"secret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	login := f.do(http.MethodPost, "/auth/login", `{"username":"new@example.com","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, login.Code)
}

func TestValidationRejectsMalformedEmail(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(http.MethodPost, "/auth/register/code", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/i18n"
)

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "teacher":
		return &models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher}, nil
	case "student":
		return &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newEngine(t *testing.T, env string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bundle, err := i18n.New("en", []string{"en", "fr", "rw"})
	require.NoError(t, err)

	cfg := &config.Config{Env: env, APIPrefix: "/api"}
	cfg.Realtime.Path = "/socket"
	return New(Options{
		Config: cfg,
		Logger: zap.NewNop(),
		Tokens: stubTokens{},
		Bundle: bundle,
	}, Handlers{
		Auth:        handler.NewAuthHandler(nil, nil),
		Files:       handler.NewFileHandler(nil),
		Classes:     handler.NewClassHandler(nil, nil),
		Submissions: handler.NewSubmissionHandler(nil),
		Metrics:     handler.NewMetricsHandler(nil, nil),
		Realtime: func(c *gin.Context) {
			c.Status(http.StatusSwitchingProtocols)
		},
	})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoutesEnforceAuthAndRoles(t *testing.T) {
	r := newEngine(t, config.EnvDevelopment)

	cases := []struct {
		method, path, token string
		status              int
	}{
		{http.MethodPost, "/api/files/upload", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/files/upload", "student", http.StatusForbidden},
		{http.MethodPost, "/api/files/submit/c1", "teacher", http.StatusForbidden},
		{http.MethodDelete, "/api/files/f1", "student", http.StatusForbidden},
		{http.MethodPost, "/api/classes", "student", http.StatusForbidden},
		{http.MethodGet, "/api/classes/c1/grades/export", "student", http.StatusForbidden},
		{http.MethodGet, "/api/submissions/mine", "teacher", http.StatusForbidden},
		{http.MethodPut, "/api/submissions/s1/grade", "student", http.StatusForbidden},
		{http.MethodGet, "/api/auth/profile", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/classes", "bogus", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := serve(r, tc.method, tc.path, tc.token)
		assert.Equal(t, tc.status, rec.Code, "%s %s as %q", tc.method, tc.path, tc.token)
	}
}

func TestPublicRoutes(t *testing.T) {
	r := newEngine(t, config.EnvDevelopment)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusSwitchingProtocols, serve(r, http.MethodGet, "/socket", "").Code)

	rec := serve(r, http.MethodGet, "/example?lng=rw", "")
	assert.Equal(t, "rw", rec.Header().Get("Content-Language"))

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/metrics", "").Code)
}

func TestStudentForbiddenMessageIsLocalised(t *testing.T) {
	r := newEngine(t, config.EnvDevelopment)

	rec := serve(r, http.MethodPost, "/api/files/upload?lng=fr", "student")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "réservé aux enseignants")
}

func TestDocsHiddenInProduction(t *testing.T) {
	dev := newEngine(t, config.EnvDevelopment)
	assert.NotEqual(t, http.StatusNotFound, serve(dev, http.MethodGet, "/docs/index.html", "").Code)

	prod := newEngine(t, config.EnvProduction)
	assert.Equal(t, http.StatusNotFound, serve(prod, http.MethodGet, "/docs/index.html", "").Code)
}

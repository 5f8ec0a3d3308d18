package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-with-at-least-32-chars"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                   "0",
		Env:                    "test",
		JWTSecret:              testSecret,
		AllowedOrigins:         "http://localhost:3000",
		PageSize:               10,
		ListingCacheBackend:    config.ListingCacheMemory,
		ListingCacheTTLSeconds: 20,
		MediaDir:               t.TempDir(),
		MediaMaxUploadMB:       5,
	}
}

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	s, err := NewServerWithDeps(testConfig(t), db, rdb)
	require.NoError(t, err)
	return s, s.NewApp(), db
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := middleware.IssueToken(testSecret, u.ID)
	require.NoError(t, err)
	return token
}

// do sends a request; form values, when given, are sent urlencoded.
func do(t *testing.T, app *fiber.App, method, target, token string, form url.Values) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type feedJSON struct {
	Kind      string `json:"kind"`
	PostCount *int   `json:"post_count"`
	Following *bool  `json:"following"`
	Author    *struct {
		Username string `json:"username"`
	} `json:"author"`
	Page struct {
		Items []struct {
			ID     uint   `json:"id"`
			Text   string `json:"text"`
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"items"`
		Number      int  `json:"number"`
		TotalPages  int  `json:"total_pages"`
		TotalItems  int  `json:"total_items"`
		HasNext     bool `json:"has_next"`
		HasPrevious bool `json:"has_previous"`
	} `json:"page"`
}

func getFeed(t *testing.T, app *fiber.App, target, token string) (feedJSON, *http.Response) {
	t.Helper()
	resp := do(t, app, http.MethodGet, target, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed feedJSON
	decode(t, resp, &feed)
	return feed, resp
}

func TestHealthChecks(t *testing.T) {
	_, app, _ := newTestServer(t, nil)

	resp := do(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestRespondError(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/err/:kind", func(c *fiber.Ctx) error {
		switch c.Params("kind") {
		case "unauthorized":
			return s.respondError(c, models.NewUnauthorizedError("sign in"))
		case "missing":
			return s.respondError(c, models.NewNotFoundError("Post", 1))
		case "invalid":
			return s.respondError(c, models.NewFieldValidationError(map[string]string{"text": "required"}))
		default:
			return s.respondError(c, io.ErrUnexpectedEOF)
		}
	})

	tests := []struct {
		kind   string
		status int
	}{
		{"unauthorized", http.StatusFound},
		{"missing", http.StatusNotFound},
		{"invalid", http.StatusBadRequest},
		{"plain", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err/"+tt.kind, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err/unauthorized", nil))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login/?next=%2Ferr%2Funauthorized", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/err/plain", nil))
	require.NoError(t, err)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.Empty(t, body.Details, "internal causes are not leaked")
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/follow/":          "/follow/",
		"//evil.example":    "/",
		"https://evil.test": "/",
		"/\\evil.example":   "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), in)
	}
}

package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"yatube/internal/middleware"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	return nil
}

func TestLoginForm(t *testing.T) {
	_, app, _ := newTestServer(t, nil)

	resp := do(t, app, http.MethodGet, "/auth/login/?next=%2Fcreate%2F", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Fields []string `json:"fields"`
		Next   string   `json:"next"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "/create/", body.Next)
	assert.Equal(t, []string{"username", "password"}, body.Fields)
}

func TestSignupAndLogin(t *testing.T) {
	_, app, db := newTestServer(t, nil)

	resp := do(t, app, http.MethodPost, "/auth/signup/", "", url.Values{
		"username":   {"leo"},
		"password":   {"war-and-peace"},
		"first_name": {"Leo"},
		"last_name":  {"Tolstoy"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := tokenCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	var signup authResponse
	decode(t, resp, &signup)
	assert.Equal(t, "Leo Tolstoy", signup.User.FullName)
	assert.Equal(t, cookie.Value, signup.Token)

	resp = do(t, app, http.MethodPost, "/auth/signup/", "", url.Values{"username": {"leo"}, "password": {"war-and-peace"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "username is taken")

	resp = do(t, app, http.MethodPost, "/auth/login/", "", url.Values{"username": {"leo"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, tokenCookie(resp))

	testutil.CreateUser(t, db, "ann")
	resp = do(t, app, http.MethodPost, "/auth/login/?next=%2Ffollow%2F", "", url.Values{
		"username": {"ann"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, tokenCookie(resp))
	var login authResponse
	decode(t, resp, &login)
	assert.Equal(t, "/follow/", login.Next)
	assert.Equal(t, "ann", login.User.Username)

	// the cookie alone signs the browser in
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: login.Token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	_, app, db := newTestServer(t, rdb)
	leo := testutil.CreateUser(t, db, "leo")
	token := tokenFor(t, leo)

	resp := do(t, app, http.MethodGet, "/create/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/auth/logout/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := tokenCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp = do(t, app, http.MethodGet, "/create/", token, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "revoked token is anonymous")

	claims, err := middleware.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.True(t, mr.Exists("blacklist:"+claims.JTI))
}

func TestAdminClearCache_StaffOnly(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	leo := testutil.CreateUser(t, db, "leo")

	resp := do(t, app, http.MethodPost, "/admin/cache/clear/", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/admin/cache/clear/", tokenFor(t, leo), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/findmytutor/findmytutor/apps/api/echo"
	"github.com/findmytutor/findmytutor/core/admin"
	"github.com/findmytutor/findmytutor/services/throttle"
	"github.com/findmytutor/findmytutor/tests"
)

type loginResponse struct {
	Token string `json:"token"`
}

func loginBody(t *testing.T, email, pwd string) []byte {
	return marchallObj(t, map[string]string{"email": email, "password": pwd})
}

func Test_authApi_login(t *testing.T) {
	srv := newServer(conf, throttle.NewMemoryLimiter(10, time.Minute))
	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{name: "empty password", body: loginBody(t, "admin@findmytutor.com", ""), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{name: "missing password", body: []byte(`{"email":"admin@findmytutor.com"}`), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{name: "wrong password", body: loginBody(t, "admin@findmytutor.com", "nope"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{name: "wrong email", body: loginBody(t, "other@findmytutor.com", "anas"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/admin-login"
	}
	runTests(t, srv, tests)

	t.Run("valid credentials", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/admin-login", loginBody(t, " Admin@FindMyTutor.com ", "anas"))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)

		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "admin@findmytutor.com", claims.Email)
		assert.Equal(t, admin.Role, claims.Role)
		assert.Equal(t, int64(time.Hour.Seconds()), claims.ExpiresAt-claims.IssuedAt)
	})
}

func forwardedFor(ip string) http.Header {
	return http.Header{"X-Forwarded-For": []string{ip}, "X-Real-Ip": []string{ip}}
}

func Test_authApi_loginThrottle(t *testing.T) {
	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})
	tooMany := marchallObj(t, httpErr{Error: "too many failed login attempts, try again later"})

	t.Run("per connection address", func(t *testing.T) {
		srv := newServer(conf, throttle.NewMemoryLimiter(2, time.Minute))

		tests := []httpTest{
			{name: "1st failure", body: loginBody(t, "admin@findmytutor.com", "x"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
			{name: "2nd failure", body: loginBody(t, "admin@findmytutor.com", "y"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
			{
				name: "throttled even with the right password", body: loginBody(t, "admin@findmytutor.com", "anas"),
				wantCode: http.StatusTooManyRequests, wantData: tooMany,
			},
			{
				name: "forwarding headers from an untrusted peer are ignored", body: loginBody(t, "admin@findmytutor.com", "z"),
				header: forwardedFor("10.0.0.7"), wantCode: http.StatusTooManyRequests, wantData: tooMany,
			},
		}
		runTests(t, srv, tests, withMethodPathToken(http.MethodPost, "/api/admin-login", ""))
	})

	t.Run("success resets the count", func(t *testing.T) {
		srv := newServer(conf, throttle.NewMemoryLimiter(2, time.Minute))

		tests := []httpTest{
			{name: "failure", body: loginBody(t, "admin@findmytutor.com", "x"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
			{name: "success", body: loginBody(t, "admin@findmytutor.com", "anas"), wantCode: http.StatusOK},
			{name: "1st failure after reset", body: loginBody(t, "admin@findmytutor.com", "x"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
			{name: "2nd failure after reset", body: loginBody(t, "admin@findmytutor.com", "x"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		}
		for _, tt := range tests {
			req, rec := newRequest(http.MethodPost, "/api/admin-login", tt.body)
			srv.ServeHTTP(rec, req)
			if assert.Equal(t, tt.wantCode, rec.Code, tt.name) && tt.wantData != nil {
				assert.JSONEq(t, string(tt.wantData), rec.Body.String(), tt.name)
			}
		}
	})

	t.Run("spoofed addresses share one budget", func(t *testing.T) {
		srv := newServer(conf, throttle.NewMemoryLimiter(2, time.Minute))

		codes := make([]int, 0, 10)
		for i := 1; i <= 10; i++ {
			req, rec := newRequest(http.MethodPost, "/api/admin-login", loginBody(t, "admin@findmytutor.com", "wrong"))
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			srv.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized}, codes[:2])
		for _, code := range codes[2:] {
			assert.Equal(t, http.StatusTooManyRequests, code)
		}
	})

	t.Run("trusted proxy", func(t *testing.T) {
		proxied := *conf
		proxied.Server.TrustedProxies = []string{"192.0.2.1"} // httptest peer address
		srv := newServer(&proxied, throttle.NewMemoryLimiter(1, time.Minute))

		tests := []httpTest{
			{name: "client A fails", body: loginBody(t, "admin@findmytutor.com", "x"), header: forwardedFor("10.0.0.1"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
			{name: "client A throttled", body: loginBody(t, "admin@findmytutor.com", "x"), header: forwardedFor("10.0.0.1"), wantCode: http.StatusTooManyRequests, wantData: tooMany},
			{name: "client B has its own budget", body: loginBody(t, "admin@findmytutor.com", "x"), header: forwardedFor("10.0.0.2"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		}
		runTests(t, srv, tests, withMethodPathToken(http.MethodPost, "/api/admin-login", ""))
	})
}

func Test_adminGate(t *testing.T) {
	testutil.ResetDB(t, db)

	expired, err := GenerateToken(conf, &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
			IssuedAt:  time.Now().Add(-time.Hour).Unix(),
		},
		Email: conf.Admin.Email,
		Role:  admin.Role,
	})
	require.NoError(t, err)

	notAdmin, err := GenerateToken(conf, &Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Email:          "visitor@findmytutor.com",
		Role:           "visitor",
	})
	require.NoError(t, err)

	body := newTutorBody(t, "Gate", 1, "2024-01-01", "BSc")
	tests := []httpTest{
		{name: "no token", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "expired token", body: body, token: expired, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "not an admin", body: body, token: notAdmin, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/tutors"
	}
	runTests(t, app, tests)

	t.Run("enforcement disabled", func(t *testing.T) {
		open := *conf
		open.Server.EnforceAdminAuth = false
		srv := newServer(&open, throttle.NewMemoryLimiter(5, time.Minute))

		req, rec := newRequest(http.MethodPost, "/api/tutors", body)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

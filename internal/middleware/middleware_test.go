package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/testutil"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/middleware"
	"github.com/trishit-guin/ayutrace-backend-sub000/internal/observability"
)

func echoPrincipal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":  c.GetString("user_id"),
		"org_id":   c.GetString("org_id"),
		"org_type": c.GetString("org_type"),
		"role":     c.GetString("role"),
	})
}

func TestJWTAuthSetsPrincipal(t *testing.T) {
	r := testutil.SetupRouter()
	testutil.AuthGroup(r, "/api").GET("/me", echoPrincipal)

	token := testutil.GenerateTestToken("user-1", "org-1", "LABS", "USER")
	w := testutil.DoRequest(r, "GET", "/api/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := testutil.ParseResponse(w)
	if body["user_id"] != "user-1" || body["org_id"] != "org-1" || body["org_type"] != "LABS" {
		t.Fatalf("Unexpected principal: %v", body)
	}

	// SSE 客户端通过 query 传 token
	req, _ := http.NewRequest("GET", "/api/me?token="+token, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected query token to authenticate, got %d", w.Code)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	r := testutil.SetupRouter()
	testutil.AuthGroup(r, "/api").GET("/me", echoPrincipal)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "user-1",
		"typ": middleware.TokenTypeRefresh,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	refreshToken, _ := refresh.SignedString([]byte(testutil.JWTSecret))

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	forged, _ := wrongKey.SignedString([]byte("not-the-secret"))

	cases := map[string]struct {
		token string
		code  float64
	}{
		"missing": {"", 40100},
		"forged":  {forged, 40102},
		"refresh": {refreshToken, 40103},
	}
	for name, tc := range cases {
		w := testutil.DoRequest(r, "GET", "/api/me", nil, tc.token)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
		if code := testutil.ParseResponse(w)["code"]; code != tc.code {
			t.Fatalf("%s: expected code %v, got %v", name, tc.code, code)
		}
	}
}

func TestRequireRoleAndOrgType(t *testing.T) {
	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api")
	api.GET("/admin", middleware.RequireRole("ADMIN"), echoPrincipal)
	api.GET("/lab", middleware.RequireOrgType("LABS"), echoPrincipal)

	cases := []struct {
		path, orgType, role string
		want                int
	}{
		{"/api/admin", "FARMER", "ADMIN", http.StatusOK},
		{"/api/admin", "FARMER", "USER", http.StatusForbidden},
		{"/api/admin", "ADMIN", middleware.SuperAdminRole, http.StatusOK},
		{"/api/lab", "LABS", "USER", http.StatusOK},
		{"/api/lab", "FARMER", "ADMIN", http.StatusForbidden},
		{"/api/lab", "ADMIN", middleware.SuperAdminRole, http.StatusOK},
	}
	for _, tc := range cases {
		token := testutil.GenerateTestToken("user-1", "org-1", tc.orgType, tc.role)
		w := testutil.DoRequest(r, "GET", tc.path, nil, token)
		if w.Code != tc.want {
			t.Fatalf("%s as %s/%s: expected %d, got %d", tc.path, tc.orgType, tc.role, tc.want, w.Code)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := testutil.SetupRouter()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "req-123" || w.Body.String() != "req-123" {
		t.Fatalf("Expected incoming request id to be kept, got %q", w.Header().Get("X-Request-ID"))
	}

	w = testutil.DoRequest(r, "GET", "/ping", nil, "")
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("Expected generated uuid request id, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := testutil.SetupRouter()
	r.Use(middleware.Metrics())
	r.GET("/batches/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := observability.HTTPRequests.WithLabelValues("GET", "/batches/:id", "204")
	before := promtest.ToFloat64(counter)
	testutil.DoRequest(r, "GET", "/batches/b-1", nil, "")
	testutil.DoRequest(r, "GET", "/batches/b-2", nil, "")
	if got := promtest.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("Expected 2 requests recorded under the route template, got %v", got)
	}
}

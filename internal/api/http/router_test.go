package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestApp(t *testing.T, postgres handlers.Pinger) *fiber.App {
	t.Helper()
	tokens := auth.NewTokenManager("router-secret", 5)
	metrics := observability.NewMetrics()
	identity := service.NewIdentityService(service.IdentityDependencies{
		UserStore: repository.NewMemoryUserStore(),
		Hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens:    tokens,
		Metrics:   metrics,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("identity-service", "test", postgres, nil),
		Users:          handlers.NewUsersHandler(identity),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})
	return app
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func do(t *testing.T, app *fiber.App, method, path, token, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	raw, _ := io.ReadAll(res.Body)
	out := response{status: res.StatusCode, raw: string(raw)}
	_ = json.Unmarshal(raw, &out.body)
	return out
}

func errorMessage(r response) string {
	errBody, _ := r.body["error"].(map[string]any)
	msg, _ := errBody["message"].(string)
	return msg
}

func TestAccountLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	register := `{"email":"a@b.co","name":"Jo","surname":"Doe","password":"secret1"}`

	res := do(t, app, "POST", "/register", "", register)
	if res.status != fiber.StatusCreated || res.body["message"] != "Successfully created!" {
		t.Fatalf("register: %d %s", res.status, res.raw)
	}

	res = do(t, app, "POST", "/register", "", register)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Email already taken!" {
		t.Fatalf("duplicate register: %d %s", res.status, res.raw)
	}

	res = do(t, app, "POST", "/login", "", `{"email":"a@b.co","password":"wrong"}`)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Invalid password!" {
		t.Fatalf("bad login: %d %s", res.status, res.raw)
	}

	res = do(t, app, "POST", "/login", "", `{"email":"a@b.co","password":"secret1"}`)
	if res.status != fiber.StatusOK {
		t.Fatalf("login: %d %s", res.status, res.raw)
	}
	token, _ := res.body["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %s", res.raw)
	}
	if strings.Contains(res.raw, "password") || strings.Contains(res.raw, "$2a$") {
		t.Fatalf("login response leaks credentials: %s", res.raw)
	}

	res = do(t, app, "GET", "/user", token, "")
	if res.status != fiber.StatusOK || res.body["surname"] != "Doe" {
		t.Fatalf("me: %d %s", res.status, res.raw)
	}
	id, _ := res.body["id"].(string)

	res = do(t, app, "GET", "/users/"+id, token, "")
	if res.status != fiber.StatusNotFound {
		t.Fatalf("profiles must not be readable by id over http: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/userPatch", token, `{"email":"a@b.co","name":"Jo","surname":"Doe","password":"secret1"}`)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Invalid input!" {
		t.Fatalf("no-op update: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/userPatch", token, `{"email":"a@b.co","name":"Joanna","surname":"Doe","password":"secret1"}`)
	if res.status != fiber.StatusOK || res.body["message"] != "Successfully updated!" {
		t.Fatalf("update: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/password", token, `{"oldPassword":"secret1","newPassword":"secret1"}`)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Password cannot be the same!" {
		t.Fatalf("reuse: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/password", token, `{"oldPassword":"secret1","newPassword":"abc"}`)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Password too short or too long!" {
		t.Fatalf("short: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/password", token, `{"oldPassword":"secret9","newPassword":"secret2"}`)
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Password don't match!" {
		t.Fatalf("mismatch: %d %s", res.status, res.raw)
	}

	res = do(t, app, "PATCH", "/password", token, `{"oldPassword":"secret1","newPassword":"secret2"}`)
	if res.status != fiber.StatusOK || res.body["message"] != "Successfully changed!" {
		t.Fatalf("change password: %d %s", res.status, res.raw)
	}

	res = do(t, app, "POST", "/login", "", `{"email":"a@b.co","password":"secret2"}`)
	if res.status != fiber.StatusOK {
		t.Fatalf("login with new password: %d %s", res.status, res.raw)
	}
}

func TestEmailChangeReissuesToken(t *testing.T) {
	app := newTestApp(t, nil)
	do(t, app, "POST", "/register", "", `{"email":"a@b.co","name":"Jo","surname":"Doe","password":"secret1"}`)
	login := do(t, app, "POST", "/login", "", `{"email":"a@b.co","password":"secret1"}`)
	oldToken, _ := login.body["token"].(string)

	res := do(t, app, "PATCH", "/userPatch", oldToken, `{"email":"new@b.co","name":"Jo","surname":"Doe","password":"secret1"}`)
	newToken, _ := res.body["token"].(string)
	if res.status != fiber.StatusOK || newToken == "" {
		t.Fatalf("update email: %d %s", res.status, res.raw)
	}

	res = do(t, app, "GET", "/user", newToken, "")
	if res.status != fiber.StatusOK || res.body["email"] != "new@b.co" {
		t.Fatalf("me with new token: %d %s", res.status, res.raw)
	}

	res = do(t, app, "GET", "/user", oldToken, "")
	if res.status != fiber.StatusBadRequest || errorMessage(res) != "Bad request" {
		t.Fatalf("me with stale token: %d %s", res.status, res.raw)
	}
}

func TestInputErrors(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"register short password", "POST", "/register", `{"email":"a@b.co","name":"Jo","surname":"Doe","password":"123"}`, fiber.StatusBadRequest, "Invalid input!"},
		{"register malformed json", "POST", "/register", `{"email":`, fiber.StatusBadRequest, "Invalid input!"},
		{"login missing password", "POST", "/login", `{"email":"a@b.co"}`, fiber.StatusBadRequest, "Invalid input!"},
		{"login unknown email", "POST", "/login", `{"email":"x@y.z","password":"secret1"}`, fiber.StatusBadRequest, "Email don't exist!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, app, tt.method, tt.path, "", tt.body)
			if res.status != tt.status || errorMessage(res) != tt.message {
				t.Fatalf("got %d %s", res.status, res.raw)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, nil)
	for _, route := range []struct{ method, path string }{
		{"GET", "/user"},
		{"PATCH", "/userPatch"},
		{"PATCH", "/password"},
	} {
		res := do(t, app, route.method, route.path, "", "")
		if res.status != fiber.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, res.status)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, nil)
	res := do(t, app, "GET", "/nope", "", "")
	if res.status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.status, res.raw)
	}
}

func TestHealthEndpoints(t *testing.T) {
	healthy := newTestApp(t, pingFunc(func(context.Context) error { return nil }))
	if res := do(t, healthy, "GET", "/health/live", "", ""); res.status != fiber.StatusOK || res.body["status"] != "alive" {
		t.Fatalf("live: %d %s", res.status, res.raw)
	}
	res := do(t, healthy, "GET", "/health/ready", "", "")
	if res.status != fiber.StatusOK {
		t.Fatalf("ready: %d %s", res.status, res.raw)
	}
	deps, _ := res.body["dependencies"].(map[string]any)
	if deps["postgres"] != "ok" || deps["redis"] != "disabled" {
		t.Fatalf("unexpected dependency report %v", deps)
	}

	broken := newTestApp(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	if res := do(t, broken, "GET", "/health/ready", "", ""); res.status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d %s", res.status, res.raw)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	do(t, app, "POST", "/login", "", `{"email":"x@y.z","password":"secret1"}`)

	res := do(t, app, "GET", "/metrics", "", "")
	if res.status != fiber.StatusOK {
		t.Fatalf("metrics: %d", res.status)
	}
	if !strings.Contains(res.raw, `identity_service_operations_total{operation="login",outcome="EMAIL_NOT_FOUND"} 1`) {
		t.Fatalf("operation counter missing:\n%s", res.raw)
	}
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Name: "tour-booking-backend", Version: "test", RequestTimeoutSeconds: 5},
		Store: config.StoreConfig{Namespace: "test"},
		Auth:  config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
	}
}

func newServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(context.Background(), testConfig(), Options{SeedDemo: true})
	require.NoError(t, err)
	return srv
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := call(t, app, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": "secret1", "fullName": "Mai Tran",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv.App, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = call(t, srv.App, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	call(t, srv.App, fiber.MethodGet, "/health/live", "", nil)

	resp, err := srv.App.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "tourbooking_backend_http_requests_total")
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newServer(t)
	token := register(t, srv.App, "mai@example.com")
	assert.NotEmpty(t, token)

	status, body := call(t, srv.App, fiber.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "MAI@example.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "Mai Tran", user["fullName"])

	status, body = call(t, srv.App, fiber.MethodGet, "/api/auth/me", body["token"].(string), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "mai@example.com", body["user"].(map[string]any)["email"])
}

func TestRegisterValidation(t *testing.T) {
	srv := newServer(t)
	register(t, srv.App, "dup@example.com")

	status, body := call(t, srv.App, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "dup@example.com", "password": "secret1", "fullName": "Again",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "email already registered", body["error"].(map[string]any)["message"])

	status, body = call(t, srv.App, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "not-an-email", "password": "x",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "fullName")
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newServer(t)
	register(t, srv.App, "mai@example.com")

	status, body := call(t, srv.App, fiber.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "mai@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", body["error"].(map[string]any)["message"])
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newServer(t)
	token := register(t, srv.App, "mai@example.com")

	status, _ := call(t, srv.App, fiber.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := call(t, srv.App, fiber.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "token revoked", body["error"].(map[string]any)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newServer(t)

	status, _ := call(t, srv.App, fiber.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, srv.App, fiber.MethodPut, "/api/client/user/profile", "garbage", map[string]any{"fullName": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestProfileAndPassword(t *testing.T) {
	srv := newServer(t)
	token := register(t, srv.App, "mai@example.com")

	status, body := call(t, srv.App, fiber.MethodPut, "/api/client/user/profile", token, map[string]any{
		"fullName": "Mai Nguyen", "phone": "0912345678",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Mai Nguyen", body["user"].(map[string]any)["fullName"])

	status, body = call(t, srv.App, fiber.MethodPost, "/api/client/user/change-password", token, map[string]any{
		"currentPassword": "nope-nope", "newPassword": "secret2",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "current password is incorrect", body["error"].(map[string]any)["message"])

	status, _ = call(t, srv.App, fiber.MethodPost, "/api/client/user/change-password", token, map[string]any{
		"currentPassword": "secret1", "newPassword": "secret2",
	})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, srv.App, fiber.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "mai@example.com", "password": "secret2",
	})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCouponValidate(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv.App, fiber.MethodPost, "/coupon/validate", "", map[string]any{
		"code": "summer10", "orderTotal": 1_000_000,
	})
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.EqualValues(t, 100_000, data["discountAmount"])
	assert.EqualValues(t, 900_000, data["finalTotal"])

	_, body = call(t, srv.App, fiber.MethodPost, "/coupon/validate", "", map[string]any{
		"code": "WELCOME200K", "orderTotal": 500_000,
	})
	data = body["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, "order total must be at least 1000000", data["message"])

	_, body = call(t, srv.App, fiber.MethodPost, "/coupon/validate", "", map[string]any{
		"code": "NOPE", "orderTotal": 500_000,
	})
	assert.Equal(t, "coupon not found", body["data"].(map[string]any)["message"])
}

func TestAdminCreatesCoupon(t *testing.T) {
	srv := newServer(t)
	customer := register(t, srv.App, "mai@example.com")
	coupon := map[string]any{
		"code": "flash50", "discountType": "percent", "discountValue": 50,
		"endDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}

	status, _ := call(t, srv.App, fiber.MethodPost, "/api/admin/coupons", customer, coupon)
	assert.Equal(t, fiber.StatusForbidden, status)

	_, login := call(t, srv.App, fiber.MethodPost, "/api/auth/login", "", map[string]any{
		"email": service.DemoAdminEmail, "password": service.DemoAdminPassword,
	})
	admin := login["token"].(string)

	status, body := call(t, srv.App, fiber.MethodPost, "/api/admin/coupons", admin, coupon)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "FLASH50", body["data"].(map[string]any)["code"])

	status, _ = call(t, srv.App, fiber.MethodPost, "/api/admin/coupons", admin, coupon)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestCartDetailReprices(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv.App, fiber.MethodPost, "/cart/detail", "", map[string]any{
		"items": []map[string]any{
			{"tourId": 3, "quantityAdult": 4, "priceNewAdult": 1},
			{"tourId": 999, "quantityAdult": 1},
		},
	})
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	cart := data["cart"].([]any)
	require.Len(t, cart, 2)

	sapa := cart[0].(map[string]any)
	assert.EqualValues(t, 4_200_000, sapa["priceNewAdult"])
	assert.EqualValues(t, 3, sapa["stockAdult"])
	assert.Equal(t, "Sa Pa trekking 3 days", sapa["name"])
	assert.EqualValues(t, 0, cart[1].(map[string]any)["stockAdult"])
	assert.EqualValues(t, 4*4_200_000, data["subTotal"])
}

func TestUnknownRouteIsJSON(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv.App, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

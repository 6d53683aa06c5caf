package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/observability"
	"github.com/spec-kit/tour-booking/internal/store"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

const defaultTimeout = 30 * time.Second

// Gateway is the backend contract consumed by the session manager and the coupon resolver.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Register(ctx context.Context, reg domain.Registration) (*AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*ProfileResponse, error)
	ChangePassword(ctx context.Context, current, next string) (*StatusResponse, error)
	ValidateCoupon(ctx context.Context, code string, orderTotal domain.Money) (*CouponValidation, error)
	CartDetail(ctx context.Context, lines []domain.CartLine) (*CartDetail, error)
}

// TokenSource yields the bearer token for the next request, or "".
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) string

func (f TokenSourceFunc) Token(ctx context.Context) string { return f(ctx) }

// StoreTokens reads the token the session manager persisted under domain.KeyToken.
func StoreTokens(st store.Store) TokenSource {
	return TokenSourceFunc(func(ctx context.Context) string {
		var token string
		if found, err := st.Get(ctx, domain.KeyToken, &token); err != nil || !found {
			return ""
		}
		return strings.TrimSpace(token)
	})
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Client talks JSON over HTTP to the backend using fiber's fasthttp agent.
// A context deadline shortens the request timeout, but cancelling the context
// does not interrupt a request already in flight; it runs until the timeout.
type Client struct {
	baseURL string
	timeout time.Duration
	tokens  TokenSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

var _ Gateway = (*Client)(nil)

// NewClient builds a gateway client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tokens == nil {
		opts.Tokens = TokenSourceFunc(func(context.Context) string { return "" })
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		tokens:  opts.Tokens,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, fiber.MethodPost, PathLogin, LoginRequest{Email: email, Password: password}, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a customer account and signs it in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, fiber.MethodPost, PathRegister, reg, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, fiber.MethodPost, PathLogout, nil, false, nil)
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out meResponse
	if err := c.do(ctx, fiber.MethodGet, PathMe, nil, false, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &apperrors.ClientError{Kind: apperrors.KindServer, Status: fiber.StatusOK, Message: "failed to get user info"}
	}
	return out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, fiber.MethodPut, PathProfile, update, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (*StatusResponse, error) {
	var out StatusResponse
	req := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := c.do(ctx, fiber.MethodPost, PathChangePassword, req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateCoupon asks the backend whether code applies to orderTotal. Codes are sent upper-cased.
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderTotal domain.Money) (*CouponValidation, error) {
	var out CouponValidation
	req := CouponRequest{Code: strings.ToUpper(code), OrderTotal: orderTotal}
	if err := c.do(ctx, fiber.MethodPost, PathCouponValidate, req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CartDetail returns current prices and stock for the given lines.
func (c *Client) CartDetail(ctx context.Context, lines []domain.CartLine) (*CartDetail, error) {
	var out CartDetail
	if err := c.do(ctx, fiber.MethodPost, PathCartDetail, CartDetailRequest{Items: lines}, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, credentials bool, out any) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil || timeout <= 0 {
		if err == nil {
			err = context.DeadlineExceeded
		}
		return c.fail(path, apperrors.NewNetworkError(err))
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)

	requestID := uuid.NewString()
	agent.Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Set(fiber.HeaderXRequestID, requestID)
	if token := c.tokens.Token(ctx); token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return c.fail(path, apperrors.NewNetworkError(err))
	}

	start := time.Now()
	status, respBody, errs := agent.Bytes()
	c.metrics.RecordGatewayCall(path, status, time.Since(start))

	if len(errs) > 0 {
		return c.fail(path, apperrors.NewNetworkError(errors.Join(errs...)))
	}
	if err := classify(status, respBody, credentials); err != nil {
		return c.fail(path, err)
	}

	c.logger.Debug("gateway call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("request_id", requestID))

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := decodeEnvelope(respBody, out); err != nil {
		return c.fail(path, &apperrors.ClientError{
			Kind:    apperrors.KindServer,
			Status:  status,
			Message: apperrors.MsgServer,
			Err:     err,
		})
	}
	return nil
}

func (c *Client) fail(path string, err error) error {
	kind := apperrors.KindOf(err)
	c.metrics.RecordGatewayFailure(path, string(kind))
	c.logger.Debug("gateway call failed", zap.String("path", path), zap.String("kind", string(kind)), zap.Error(err))
	return err
}

// decodeEnvelope fills out from the top-level body, then overlays a nested
// "data" object when the backend wraps its payload.
func decodeEnvelope(body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" || envelope.Data[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

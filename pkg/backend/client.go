package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/payment"
	"github.com/dmitrymomot/payflow/pkg/subscription"
)

// Config holds the backend client configuration.
type Config struct {
	BaseURL     string        `env:"PAYFLOW_API_BASE_URL,required"`
	AuthToken   string        `env:"PAYFLOW_API_TOKEN"`
	HTTPTimeout time.Duration `env:"PAYFLOW_API_TIMEOUT" envDefault:"30s"`
}

// Client talks to the platform's billing REST API. It implements
// coupon.Validator, payment.Gateway, and subscription.API, so one client
// serves the whole engine.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

var (
	_ coupon.Validator = (*Client)(nil)
	_ payment.Gateway  = (*Client)(nil)
	_ subscription.API = (*Client)(nil)
)

// NewClient creates a backend client from config.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    base,
		authToken:  cfg.AuthToken,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type subscribeRequest struct {
	PlanID     string `json:"planId"`
	CouponCode string `json:"couponCode,omitempty"`
	PayerPhone string `json:"payerPhone,omitempty"`
}

type subscribeResponse struct {
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
	AmountCharged int64  `json:"amountCharged"`
	PlanName      string `json:"planName"`
	Status        string `json:"status"`
}

// Subscribe starts a purchase via POST /subscriptions/subscribe.
func (c *Client) Subscribe(ctx context.Context, req payment.SubscribeRequest) (*payment.SubscribeResponse, error) {
	var resp subscribeResponse
	err := c.do(ctx, http.MethodPost, "/subscriptions/subscribe", subscribeRequest{
		PlanID:     req.PlanID,
		CouponCode: req.CouponCode,
		PayerPhone: req.PayerPhone,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &payment.SubscribeResponse{
		TransactionID: resp.TransactionID,
		RedirectURL:   resp.RedirectURL,
		AmountCharged: resp.AmountCharged,
		PlanName:      resp.PlanName,
		Status:        payment.TransactionStatus(strings.ToLower(resp.Status)),
	}, nil
}

type transactionStatusResponse struct {
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	FailureReason string `json:"failureReason,omitempty"`
}

// TransactionStatus queries GET /payments/{transactionId}/status.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (*payment.StatusResponse, error) {
	var resp transactionStatusResponse
	path := fmt.Sprintf("/payments/%s/status", transactionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &payment.StatusResponse{
		Status:        payment.TransactionStatus(strings.ToLower(resp.Status)),
		Amount:        resp.Amount,
		FailureReason: resp.FailureReason,
	}, nil
}

type currentSubscriptionResponse struct {
	ID          string     `json:"subscriptionId"`
	Status      string     `json:"status"`
	PlanID      string     `json:"planId"`
	PlanName    string     `json:"planName"`
	RenewalDate *time.Time `json:"renewalDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// Current fetches GET /subscriptions/current. A 404 maps to
// subscription.ErrNoSubscription.
func (c *Client) Current(ctx context.Context) (*subscription.Subscription, error) {
	var resp currentSubscriptionResponse
	if err := c.do(ctx, http.MethodGet, "/subscriptions/current", nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, subscription.ErrNoSubscription
		}
		return nil, err
	}

	return &subscription.Subscription{
		ID:          resp.ID,
		Status:      subscription.Status(strings.ToLower(resp.Status)),
		PlanID:      resp.PlanID,
		PlanName:    resp.PlanName,
		RenewalDate: resp.RenewalDate,
		EndDate:     resp.EndDate,
	}, nil
}

type cancelRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	Reason         string `json:"reason"`
}

// Cancel posts POST /subscriptions/cancel.
func (c *Client) Cancel(ctx context.Context, subscriptionID, reason string) error {
	return c.do(ctx, http.MethodPost, "/subscriptions/cancel", cancelRequest{
		SubscriptionID: subscriptionID,
		Reason:         reason,
	}, nil)
}

type validateCouponRequest struct {
	CouponCode string `json:"couponCode"`
	Amount     int64  `json:"amount"`
	ItemType   string `json:"itemType"`
	ItemID     string `json:"itemId"`
}

type validateCouponResponse struct {
	DiscountAmount int64 `json:"discountAmount"`
	FinalPrice     int64 `json:"finalPrice"`
	Discount       *struct {
		Type        string `json:"type"`
		Value       int64  `json:"value"`
		MaxDiscount int64  `json:"maxDiscount,omitempty"`
	} `json:"discount,omitempty"`
}

// Validate checks a coupon via POST /coupons/validate. Rejections carry the
// backend's message and unwrap to coupon.ErrCouponInvalid.
func (c *Client) Validate(ctx context.Context, req coupon.ValidationRequest) (*coupon.ValidationResult, error) {
	var resp validateCouponResponse
	err := c.do(ctx, http.MethodPost, "/coupons/validate", validateCouponRequest{
		CouponCode: req.Code,
		Amount:     req.Amount,
		ItemType:   string(req.ItemType),
		ItemID:     req.ItemID,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			// Business rejection: the message is meant for the user.
			return nil, coupon.NewInvalidCouponError(req.Code, apiErr.Message)
		}
		return nil, err
	}

	result := &coupon.ValidationResult{
		Resolved:       resp.Discount == nil,
		DiscountAmount: resp.DiscountAmount,
		FinalPrice:     resp.FinalPrice,
	}
	if resp.Discount != nil {
		result.Descriptor = &coupon.Discount{
			Kind:        coupon.DiscountKind(strings.ToLower(resp.Discount.Type)),
			Value:       resp.Discount.Value,
			MaxDiscount: resp.Discount.MaxDiscount,
		}
	}
	return result, nil
}

// do executes one JSON request/response round trip. Non-2xx answers become
// an *APIError carrying the backend's own message so callers can show it
// unmodified.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Package backend implements the HTTP client for the Penny finance backend.
//
// Every method maps to one collaborator endpoint. Failures come in two
// classes: backend-reported failures surface as *APIError, while network and
// decode problems are returned as wrapped transport errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/copenny/penny-web/internal/domain"
)

// Client calls the finance backend over HTTP/JSON.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	uploadTimeout time.Duration
	logger        *slog.Logger
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// DefaultClientConfig returns default configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        "http://127.0.0.1:8080",
		RequestTimeout: 30 * time.Second,
		UploadTimeout:  2 * time.Minute,
	}
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClientConfig().BaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultClientConfig().RequestTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultClientConfig().UploadTimeout
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		uploadTimeout: cfg.UploadTimeout,
		logger:        logger,
	}
}

// Login authenticates a user against /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates a new account via /auth/register.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	return c.auth(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

func (c *Client) auth(ctx context.Context, endpoint string, body map[string]string) (*AuthResult, error) {
	var resp authResponse
	if err := c.postJSON(ctx, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Endpoint: endpoint, Message: resp.Error}
	}
	return &AuthResult{UserID: resp.UserID, Name: resp.Name}, nil
}

// SelectPlan subscribes the user to a tier for one month.
func (c *Client) SelectPlan(ctx context.Context, userID, tier string) error {
	var resp statusOnlyResponse
	body := map[string]interface{}{
		"user_id": userID,
		"tier":    tier,
		"months":  1,
	}
	if err := c.postJSON(ctx, "/subscription/select", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Endpoint: "/subscription/select", Message: resp.Error}
	}
	return nil
}

// SubscriptionStatus returns the user's current tier.
func (c *Client) SubscriptionStatus(ctx context.Context, userID string) (string, error) {
	var resp subscriptionStatusResponse
	if err := c.getJSON(ctx, "/subscription/status", url.Values{"user_id": {userID}}, &resp); err != nil {
		return "", err
	}
	return resp.Tier, nil
}

// Chat sends a message to the advisor and returns its reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	var resp chatResponse
	if err := c.postJSON(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{Endpoint: "/chat", Message: resp.Error}
	}
	return &ChatResult{
		Status:         ChatStatus(resp.Status),
		Answer:         resp.Answer,
		Visualizations: resp.Visualizations,
	}, nil
}

// PersonalizationStatus reports whether the user has data and a trained model.
func (c *Client) PersonalizationStatus(ctx context.Context, userID string) (*domain.PersonalizationStatus, error) {
	var resp personalizationStatusResponse
	if err := c.getJSON(ctx, "/personalization/status/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &domain.PersonalizationStatus{
		HasData:           resp.HasData,
		HasModel:          resp.HasModel,
		TotalTransactions: resp.Metadata.TotalTransactions,
	}, nil
}

// Upload sends a CSV transaction file to /personalization/upload.
func (c *Client) Upload(ctx context.Context, userID, filename string, file io.Reader, overwrite bool) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy upload payload: %w", err)
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.WriteField("overwrite", strconv.FormatBool(overwrite)); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	var resp statusOnlyResponse
	if err := c.postMultipart(ctx, "/personalization/upload", mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Endpoint: "/personalization/upload", Message: resp.Error}
	}
	return &UploadResult{Message: resp.Message}, nil
}

// Train triggers a retrain of the user's personal model.
func (c *Client) Train(ctx context.Context, userID string) (*TrainResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("retrain", "true"); err != nil {
		return nil, fmt.Errorf("build train form: %w", err)
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("build train form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize train form: %w", err)
	}

	var resp trainResponse
	if err := c.postMultipart(ctx, "/personalization/train", mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Endpoint: "/personalization/train", Message: resp.Error}
	}
	return &TrainResult{TestAccuracy: resp.TestAccuracy}, nil
}

// DeleteData removes all uploaded data and model artifacts for a user.
func (c *Client) DeleteData(ctx context.Context, userID string) error {
	var resp statusOnlyResponse
	if err := c.do(ctx, http.MethodDelete, "/personalization/data", url.Values{"user_id": {userID}}, nil, "", &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Endpoint: "/personalization/data", Message: resp.Error}
	}
	return nil
}

// AlertHistory fetches the user's alert list.
func (c *Client) AlertHistory(ctx context.Context, userID string) ([]domain.Alert, error) {
	var resp alertsResponse
	if err := c.getJSON(ctx, "/alerts/history", url.Values{"user_id": {userID}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Endpoint: "/alerts/history", Message: resp.Error}
	}

	alerts := make([]domain.Alert, 0, len(resp.Alerts))
	for _, a := range resp.Alerts {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertType(a.Type),
			Severity:  domain.Severity(a.Severity),
			Title:     a.Title,
			Message:   a.Message,
			CreatedAt: parseAlertTime(a.CreatedAt),
		})
	}
	return alerts, nil
}

// ClearAlerts deletes the user's alert history.
func (c *Client) ClearAlerts(ctx context.Context, userID string) error {
	var resp statusOnlyResponse
	if err := c.do(ctx, http.MethodDelete, "/alerts/history", url.Values{"user_id": {userID}}, nil, "", &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Endpoint: "/alerts/history", Message: resp.Error}
	}
	return nil
}

// Summary fetches aggregate financial stats for the dashboard overview.
func (c *Client) Summary(ctx context.Context, userID string) (*domain.Summary, error) {
	var resp summaryResponse
	if err := c.getJSON(ctx, "/dashboard/summary", url.Values{"user_id": {userID}}, &resp); err != nil {
		return nil, err
	}
	return &domain.Summary{
		HasData:          resp.HasData,
		Balance:          resp.Balance,
		MonthlyExpense:   resp.MonthlyExpense,
		Confidence:       resp.Confidence,
		TransactionCount: resp.TransactionCount,
		DateRange:        resp.DateRange,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	return c.do(ctx, http.MethodPost, endpoint, nil, bytes.NewReader(payload), "application/json", out)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, "", out)
}

func (c *Client) postMultipart(ctx context.Context, endpoint, contentType string, body io.Reader, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	return c.do(ctx, http.MethodPost, endpoint, nil, body, contentType, out)
}

// do performs one request/response cycle against the backend. Non-2xx
// responses with a decodable error body become *APIError; everything else
// that goes wrong is a transport error.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close backend response body", "endpoint", endpoint, "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Endpoint: endpoint, Message: errorMessageFrom(raw, resp.StatusCode)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// errorMessageFrom extracts an error message from a failed response body,
// falling back to the HTTP status text.
func errorMessageFrom(raw []byte, statusCode int) string {
	var body struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, msg := range []string{body.Error, body.Detail, body.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	return http.StatusText(statusCode)
}

func parseAlertTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

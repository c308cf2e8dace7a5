// Package api is a typed HTTP client for the feedback backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/pkg/model"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error body is kept.
const maxErrorBody = 4096

// AuthScheme selects which header carries the access token.
type AuthScheme string

const (
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer AuthScheme = "bearer"
	// AuthAccessToken sends "x-access-token: <token>".
	AuthAccessToken AuthScheme = "x-access-token"
	// AuthBoth sends both headers.
	AuthBoth AuthScheme = "both"
)

// ParseAuthScheme validates s, treating "" as AuthBoth.
func ParseAuthScheme(s string) (AuthScheme, error) {
	switch AuthScheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", AuthBoth:
		return AuthBoth, nil
	case AuthBearer:
		return AuthBearer, nil
	case AuthAccessToken:
		return AuthAccessToken, nil
	}
	return "", fmt.Errorf("unknown auth scheme %q (want bearer, x-access-token or both)", s)
}

// Client is an HTTP client for the feedback backend API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	AuthScheme AuthScheme
	Logger     *slog.Logger
}

// NewClient creates a backend client with the default request timeout.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		AuthScheme: AuthBoth,
		Logger:     logging.Component(logger, "api"),
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.HTTPClient.Timeout = d
	return c
}

// WithAuthScheme sets the header convention for authenticated calls.
func (c *Client) WithAuthScheme(s AuthScheme) *Client {
	c.AuthScheme = s
	return c
}

// SignIn posts credentials to /api/auth/signin. The response is decoded but
// not validated; callers decide what a usable sign-in looks like.
func (c *Client) SignIn(ctx context.Context, username, password string) (*model.SignInResponse, error) {
	const op = "sign in"
	var out model.SignInResponse
	req := model.SignInRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, op, http.MethodPost, "/api/auth/signin", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateQuestion pushes one question to a recipient group.
func (c *Client) CreateQuestion(ctx context.Context, token string, q model.QuestionRequest) error {
	return c.doJSON(ctx, "create question", http.MethodPost, "/api/questions", token, q, nil)
}

// StaffQuestions lists the questions addressed to staff of a department.
func (c *Client) StaffQuestions(ctx context.Context, token string, departmentID int) ([]model.Question, error) {
	var out []model.Question
	path := "/api/questions/department/" + strconv.Itoa(departmentID) + "/staff"
	if err := c.doJSON(ctx, "list staff questions", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// YearQuestions lists the questions addressed to students of a department and year.
func (c *Client) YearQuestions(ctx context.Context, token string, departmentID, year int) ([]model.Question, error) {
	var out []model.Question
	path := "/api/questions/department/" + strconv.Itoa(departmentID) + "/year/" + strconv.Itoa(year)
	if err := c.doJSON(ctx, "list year questions", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitFeedback posts a rating and notes for one question.
func (c *Client) SubmitFeedback(ctx context.Context, token string, fb model.FeedbackSubmission) error {
	return c.doJSON(ctx, "submit feedback", http.MethodPost, "/api/feedback/submit", token, fb, nil)
}

// ShareReport sends report data to the given staff recipients.
func (c *Client) ShareReport(ctx context.Context, token string, req model.ShareReportRequest) error {
	return c.doJSON(ctx, "share report", http.MethodPost, "/api/reports/share", token, req, nil)
}

// DownloadReport fetches the binary feedback report.
func (c *Client) DownloadReport(ctx context.Context, token string) (*model.Report, error) {
	const op = "download report"
	resp, err := c.send(ctx, op, http.MethodGet, "/api/reports/download", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, readError(op, err)
	}

	report := &model.Report{
		Filename:    model.DefaultReportFilename,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if name := attachmentName(resp.Header.Get("Content-Disposition")); name != "" {
		report.Filename = name
	}
	c.Logger.Debug("report downloaded", "filename", report.Filename, "bytes", len(data))
	return report, nil
}

// doJSON sends body as JSON and decodes a 2xx response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.send(ctx, op, method, path, token, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return readError(op, err)
	}
	c.Logger.Debug("HTTP response body", "op", op, "bytes", len(data))

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		if out != nil {
			return fmt.Errorf("%s: %w: empty body", op, ErrDecode)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	return nil
}

// send performs the request and converts non-2xx responses into *HTTPError.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, op, method, path, token string, body io.Reader) (*http.Response, error) {
	url := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, */*")
	c.authorize(req, token)

	c.Logger.Debug("HTTP request", "method", method, "url", url)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Debug("HTTP transport failure", "url", url, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newHTTPError(op, resp.StatusCode, raw)
	}
	return resp, nil
}

// readError reports a 2xx body that broke off mid-read. The backend has
// already acted on the request, so it is a decode failure and not a
// transport one; retrying could repeat the action.
func readError(op string, err error) error {
	return fmt.Errorf("%s: %w: read body: %w", op, ErrDecode, err)
}

func (c *Client) authorize(req *http.Request, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	switch c.AuthScheme {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthAccessToken:
		req.Header.Set("x-access-token", token)
	default:
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("x-access-token", token)
	}
}

func newHTTPError(op string, status int, raw []byte) *HTTPError {
	he := &HTTPError{Op: op, StatusCode: status, Body: strings.TrimSpace(string(raw))}
	var msg model.MessageResponse
	if json.Unmarshal(raw, &msg) == nil {
		he.Message = strings.TrimSpace(msg.Message)
	}
	return he
}

// attachmentName extracts the filename parameter of a Content-Disposition header.
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is an HTTP 403.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsDecode reports whether err is a malformed 2xx body.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// =============================================================================
// iDoklad to Fakturoid - Fakturoid API Client
// =============================================================================
//
// This module wraps the two Fakturoid API v2 endpoints the importer needs:
//
//   GET  /accounts/{slug}/subjects.json   - list subjects (customers)
//   POST /accounts/{slug}/invoices.json   - create an invoice
//
// AUTHENTICATION:
//   HTTP Basic with the account email as user name and the API key as
//   password. Fakturoid requires a User-Agent naming the application and a
//   contact address; the default is "iDoklad2Fakturoid (<email>)".
//
// FAILURES:
//   Any status other than the expected one (200 for GET, 201 for POST)
//   becomes a *RequestFailedError. Nothing is retried.
//
// =============================================================================

package fakturoid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Fakturoid API v2 root.
const DefaultBaseURL = "https://app.fakturoid.cz/api/v2"

// DefaultTimeout bounds every API call when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// maxResponseSize caps how much of a response body is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

// maxSubjectPages stops a misbehaving server from paginating forever.
const maxSubjectPages = 1000

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client.
type Options struct {
	// BaseURL is the API root without the account part.
	// Default: DefaultBaseURL
	BaseURL string

	// Account is the account slug, e.g. "mycompany".
	Account string

	// Email and APIKey are the Basic auth credentials.
	Email  string
	APIKey string

	// UserAgent overrides the default "iDoklad2Fakturoid (<email>)".
	UserAgent string

	// Timeout bounds each HTTP request.
	// Default: DefaultTimeout
	Timeout time.Duration

	// RateLimit is the maximum number of requests per second.
	// Zero disables client-side limiting.
	RateLimit float64

	// Logger receives debug logs for each request. Nil disables logging.
	Logger *zap.Logger

	// HTTPClient replaces the internally built client. Its Timeout is left
	// as is.
	HTTPClient *http.Client
}

// Client talks to one Fakturoid account.
type Client struct {
	httpClient *http.Client
	accountURL string
	email      string
	apiKey     string
	userAgent  string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.Account == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidOptions)
	}
	if opts.Email == "" || opts.APIKey == "" {
		return nil, fmt.Errorf("%w: email and API key are required", ErrInvalidOptions)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrInvalidOptions, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("iDoklad2Fakturoid (%s)", opts.Email)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		httpClient: httpClient,
		accountURL: strings.TrimRight(baseURL, "/") + "/accounts/" + url.PathEscape(opts.Account),
		email:      opts.Email,
		apiKey:     opts.APIKey,
		userAgent:  userAgent,
		limiter:    limiter,
		logger:     logger.Named("fakturoid"),
	}, nil
}

// AccountURL returns the account-scoped API root.
func (c *Client) AccountURL() string {
	return c.accountURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// ListSubjects returns all subjects of the account.
//
// The first page is requested without a page parameter. Further pages are
// requested only while the response announces one with a Link rel="next"
// header, so a single-page account costs exactly one request.
func (c *Client) ListSubjects(ctx context.Context) ([]Subject, error) {
	var subjects []Subject

	for page := 1; page <= maxSubjectPages; page++ {
		path := "/subjects.json"
		if page > 1 {
			path += "?page=" + strconv.Itoa(page)
		}

		resp, body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &RequestFailedError{
				Method:     http.MethodGet,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       string(body),
			}
		}

		var batch []Subject
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decode GET %s response: %w", path, err)
		}
		subjects = append(subjects, batch...)

		if len(batch) == 0 || !hasNextPage(resp.Header) {
			break
		}
	}

	return subjects, nil
}

// CreateInvoice posts invoice and returns the created resource.
func (c *Client) CreateInvoice(ctx context.Context, invoice *Invoice) (*CreatedInvoice, error) {
	const path = "/invoices.json"

	resp, body, err := c.do(ctx, http.MethodPost, path, invoice)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, &RequestFailedError{
			Method:     http.MethodPost,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var created CreatedInvoice
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode POST %s response: %w", path, err)
	}
	return &created, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends one authenticated request and reads the whole response body.
// Transport failures (DNS, timeout, cancellation) are returned as errors;
// HTTP statuses are left to the caller.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.accountURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}

	reqID := uuid.New().String()
	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("req_id", reqID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("request completed",
		zap.String("req_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp, body, nil
}

// hasNextPage reports whether a Link header announces a rel="next" page.
func hasNextPage(header http.Header) bool {
	for _, link := range header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if strings.Contains(part, `rel="next"`) {
				return true
			}
		}
	}
	return false
}

// Package client is the HTTP client for the dataset REST API.
//
// Two endpoints are used:
//
//	GET  {base}/api/datasets?page={page}&size={size}[&search={term}]
//	POST {base}/api/datasets/batch   (JSON array of rows)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/datasetctl/internal/dataset"
)

// API paths relative to the base URL.
const (
	DatasetsPath = "/api/datasets"
	BatchPath    = "/api/datasets/batch"
)

// maxErrorBody caps how much of an error response body is kept in the error.
const maxErrorBody = 512

// Client talks to the dataset API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	HTTPClient *http.Client
	logger     zerolog.Logger
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
// The timeout is applied to a copy of the HTTP client once all options have run,
// so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, wrapError(ErrorInvalidArgument, "new", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, wrapError(ErrorInvalidArgument, "new", errors.New("base URL must be absolute: "+baseURL))
	}

	c := &Client{
		baseURL:    u,
		HTTPClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.HTTPClient
		hc.Timeout = c.timeout
		c.HTTPClient = &hc
	}
	return c, nil
}

// ListDatasets fetches one page of datasets.
func (c *Client) ListDatasets(ctx context.Context, req dataset.PageRequest) (*dataset.Page, error) {
	const op = "list"

	if req.Page < 0 {
		return nil, wrapError(ErrorInvalidArgument, op, errors.New("page must be >= 0"))
	}
	if req.Size < 1 {
		return nil, wrapError(ErrorInvalidArgument, op, errors.New("size must be > 0"))
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("size", strconv.Itoa(req.Size))
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	endpoint := c.endpoint(DatasetsPath) + "?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapError(ErrorInvalidArgument, op, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.do(httpReq, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page dataset.Page
	if decodeErr := json.NewDecoder(resp.Body).Decode(&page); decodeErr != nil {
		return nil, &Error{Code: ErrorDecodeFailed, Op: op, Status: resp.StatusCode, Err: decodeErr}
	}
	for i := range page.Content {
		page.Content[i] = page.Content[i].WithKey()
	}

	c.logger.Debug().
		Ctx(ctx).
		Str("operation", op).
		Int("page", req.Page).
		Int("size", req.Size).
		Int("rows", len(page.Content)).
		Int("total_pages", page.TotalPages).
		Msg("datasets fetched")

	return &page, nil
}

// CreateBatch posts rows as one JSON array to the batch endpoint.
// Only success or failure is observed; the response body is discarded.
func (c *Client) CreateBatch(ctx context.Context, rows []dataset.Row) error {
	const op = "batch"

	if rows == nil {
		rows = []dataset.Row{}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return wrapError(ErrorEncodeFailed, op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(BatchPath), bytes.NewReader(body))
	if err != nil {
		return wrapError(ErrorInvalidArgument, op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.do(httpReq, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug().
		Ctx(ctx).
		Str("operation", op).
		Int("rows", len(rows)).
		Int("status", resp.StatusCode).
		Msg("batch accepted")

	return nil
}

// do sends req and turns transport failures and non-2xx responses into *Error.
// On success the caller owns resp.Body.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, wrapError(ErrorRequestFailed, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newStatusError(op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// Package client talks to the document backend's HTTP endpoints.
//
// Three endpoints are used, all relative to one base URL:
//
//	POST {base}/ingest        multipart upload (file, title)
//	POST {base}/query         single-shot retrieval
//	POST {base}/agent/stream  agent run delivered as event frames
//
// The stream request carries no client timeout; it ends by context
// cancellation or when the server closes the body.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pithecene-io/docent/filesrc"
	"github.com/pithecene-io/docent/iox"
	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/types"
)

// DefaultTimeout bounds ingest and query requests.
const DefaultTimeout = 60 * time.Second

// Endpoint paths relative to the base URL.
const (
	IngestPath = "/ingest"
	QueryPath  = "/query"
	StreamPath = "/agent/stream"
)

// errorBodyLimit caps how much of a failed response is kept in a StatusError.
const errorBodyLimit = 512

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a backend client. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Its transport is shared by the stream
// client, which never has a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds ingest and query requests. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCollector counts query outcomes.
func WithCollector(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = log.Nop()
	}

	base := *c.http
	base.Timeout = c.timeout
	c.http = &base

	stream := base
	stream.Timeout = 0
	c.stream = &stream
	return c
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// OpenStream starts an agent run and returns the event stream body.
// Returns a *StatusError for non-2xx responses.
func (c *Client) OpenStream(ctx context.Context, req types.AgentRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+StreamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Ingest uploads one file with its name as the title.
func (c *Client) Ingest(ctx context.Context, file filesrc.Handle) error {
	return c.IngestTitled(ctx, file, "")
}

// IngestTitled uploads one file. An empty title defaults to the file name.
// Any 2xx response is success; the response body is not consumed.
func (c *Client) IngestTitled(ctx context.Context, file filesrc.Handle, title string) error {
	if title == "" {
		title = file.Name()
	}

	src, err := file.Open(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Source(), err)
	}
	defer iox.DiscardClose(src)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(writeIngestForm(mw, file.Name(), title, src))
	}()
	// The server may answer before reading the whole form. Closing the read
	// side unblocks the writer; src is closed only after it returned.
	defer func() {
		_ = pr.Close()
		<-written
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+IngestPath, pr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	iox.DrainClose(resp.Body)
	return nil
}

func writeIngestForm(mw *multipart.Writer, name, title string, src io.Reader) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	if err := mw.WriteField("title", title); err != nil {
		return err
	}
	return mw.Close()
}

// Query runs a single-shot retrieval and returns results in server order.
func (c *Client) Query(ctx context.Context, query string, topK int) ([]types.QueryResult, error) {
	body, err := json.Marshal(types.QueryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QueryPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	defer iox.DrainClose(resp.Body)

	var out types.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return out.Results, nil
}

// Submit runs a query and absorbs every failure: the caller always gets a
// non-nil slice, empty when anything went wrong. The failure is only logged.
func (c *Client) Submit(ctx context.Context, query string, topK int) []types.QueryResult {
	results, err := c.Query(ctx, query, topK)
	if err != nil {
		c.metrics.IncQueryFailed()
		c.logger.Warn("query failed", map[string]any{
			"error": err.Error(),
			"top_k": topK,
		})
		return []types.QueryResult{}
	}
	c.metrics.IncQuerySucceeded()
	if results == nil {
		results = []types.QueryResult{}
	}
	return results
}

// checkStatus closes the body and returns a *StatusError for non-2xx responses.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer iox.DrainClose(resp.Body)
	return &StatusError{Code: resp.StatusCode, Body: iox.Head(resp.Body, errorBodyLimit)}
}

// Package remote talks to the generator and test-evaluation service and
// provides an offline generator with the same interface.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"numviz/app/fileloader"
	"numviz/app/interfaces"
	"numviz/app/results"
)

const (
	DefaultBaseURL         = "http://127.0.0.1:8000"
	DefaultGenerateTimeout = 60 * time.Second
	DefaultTestTimeout     = 30 * time.Second
	DefaultHealthTimeout   = 3 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL         string
	GenerateTimeout time.Duration
	TestTimeout     time.Duration
	HealthTimeout   time.Duration
	// InstanceID is sent as X-Instance-ID on every request
	InstanceID string
	Logger     interfaces.Logger
	HTTPClient *http.Client
}

// Client calls the remote service. Failed calls are never retried.
type Client struct {
	baseURL         string
	client          *http.Client
	generateTimeout time.Duration
	testTimeout     time.Duration
	healthTimeout   time.Duration
	instanceID      string
	logger          interfaces.Logger
}

// NewClient creates a client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		client:          cfg.HTTPClient,
		generateTimeout: cfg.GenerateTimeout,
		testTimeout:     cfg.TestTimeout,
		healthTimeout:   cfg.HealthTimeout,
		instanceID:      cfg.InstanceID,
		logger:          cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.client == nil {
		// Deadlines come from per-call contexts
		c.client = &http.Client{}
	}
	if c.generateTimeout <= 0 {
		c.generateTimeout = DefaultGenerateTimeout
	}
	if c.testTimeout <= 0 {
		c.testTimeout = DefaultTestTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = DefaultHealthTimeout
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) log(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.logger != nil {
		c.logger.Log(level, msg)
		return
	}
	log.Printf("[REMOTE] %s", msg)
}

var errorPath = jp.MustParseString("$.error")

// Generate requests a sample from the generator service. Non-numeric
// entries are dropped; a response with no usable numbers fails.
func (c *Client) Generate(ctx context.Context, req interfaces.GenerateRequest) ([]float64, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if advisory := CountAdvisory(req.Count); advisory != "" {
		c.log("warn", "%s", advisory)
	}

	op := "generate " + string(req.Distribution)
	start := time.Now()
	doc, err := c.do(ctx, op, http.MethodGet, "/generar/"+string(req.Distribution), Query(req), nil, c.generateTimeout)
	if err != nil {
		c.log("error", "%v", err)
		return nil, err
	}

	values, skipped, err := fileloader.NumbersAt(doc, fileloader.DefaultJSONPath)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.log("warn", "%s: filtered %d non-numeric values from the response", op, skipped)
	}
	if len(values) == 0 {
		return nil, &interfaces.DataShapeError{Field: "Numeros", Reason: "response contains no valid numbers"}
	}

	c.log("info", "%s: received %d numbers in %v", op, len(values), time.Since(start))
	return values, nil
}

// RunTest posts req to the endpoint for kind and converts the response.
// A response without a usable matrix returns an error wrapping
// results.ErrNoResult.
func (c *Client) RunTest(ctx context.Context, kind results.Kind, req *TestRequest) (*results.Result, error) {
	path, err := testPath(kind)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	op := "test " + string(kind)
	doc, err := c.do(ctx, op, http.MethodPost, path, nil, body, c.testTimeout)
	if err != nil {
		c.log("error", "%v", err)
		return nil, err
	}

	result, err := results.FromDocument(doc)
	if err != nil {
		c.log("warn", "%s: %v", op, err)
		return nil, err
	}
	return result, nil
}

// Health probes /health and falls back to the service root.
func (c *Client) Health(ctx context.Context) error {
	err := c.probe(ctx, "/health")
	if err == nil {
		return nil
	}
	if fallbackErr := c.probe(ctx, "/"); fallbackErr != nil {
		return fallbackErr
	}
	return nil
}

func (c *Client) probe(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportError(ctx, "health", req.URL.String(), c.healthTimeout, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &interfaces.TransportError{Kind: interfaces.TransportStatus, Op: "health", URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.instanceID != "" {
		req.Header.Set("X-Instance-ID", c.instanceID)
	}
}

// do performs one request bounded by timeout and returns the parsed JSON
// body. Service error payloads become TransportService errors.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, op, target, timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, op, target, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &interfaces.TransportError{
			Kind:       interfaces.TransportStatus,
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    errorDetail(data),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType != "application/json" {
		return nil, &interfaces.TransportError{Kind: interfaces.TransportContentType, Op: op, URL: target, Message: contentType}
	}

	doc, err := oj.Parse(data)
	if err != nil {
		return nil, &interfaces.DataShapeError{Reason: fmt.Sprintf("invalid JSON response: %v", err)}
	}

	if found := errorPath.Get(doc); len(found) > 0 && found[0] != nil {
		return nil, &interfaces.TransportError{Kind: interfaces.TransportService, Op: op, URL: target, Message: fmt.Sprint(found[0])}
	}
	return doc, nil
}

func (c *Client) transportError(ctx context.Context, op, target string, timeout time.Duration, err error) error {
	kind := interfaces.TransportNetwork
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		kind = interfaces.TransportTimeout
	case errors.Is(err, context.Canceled):
		kind = interfaces.TransportCanceled
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = interfaces.TransportTimeout
	}
	return &interfaces.TransportError{Kind: kind, Op: op, URL: target, Timeout: timeout, Err: err}
}

var detailPaths = []jp.Expr{jp.MustParseString("$.detail"), jp.MustParseString("$.error")}

// errorDetail extracts a readable message from an error response body.
func errorDetail(data []byte) string {
	if doc, err := oj.Parse(data); err == nil {
		for _, x := range detailPaths {
			if found := x.Get(doc); len(found) > 0 && found[0] != nil {
				if s, ok := found[0].(string); ok {
					return s
				}
				return oj.JSON(found[0])
			}
		}
	}

	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

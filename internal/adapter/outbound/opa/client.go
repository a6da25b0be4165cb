// Package opa provides the HTTP client adapter for an OPA-compatible policy
// decision engine. It implements the outbound.PolicyEngine and
// outbound.PolicyStore ports against the engine's Data and Policy APIs.
package opa

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"

	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

// maxResponseBodySize caps engine response bodies to prevent OOM from a
// misbehaving engine.
const maxResponseBodySize = 10 * 1024 * 1024 // 10MB

// defaultTimeout is the per-request timeout when none is configured.
const defaultTimeout = 10 * time.Second

// defaultMaxRetries is the number of retry attempts after the initial
// request, for transient transport failures only.
const defaultMaxRetries = 3

// Client talks to an OPA server. Evaluation errors are typed; management
// operations (upload, delete, list) swallow transport errors and report
// failure through their return values.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	backoffBase time.Duration
	authToken   string
	withMetrics bool
	withTrace   bool
	insecureTLS bool
	logger      *slog.Logger
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithAuthToken sets a bearer token sent on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithMaxRetries sets how many times a transiently failing request is
// retried after the initial attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoffBase sets the base delay for exponential backoff between retry
// attempts. The delay before retry n is backoffBase * 2^n. Defaults to one
// second.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithInsecureTLS disables TLS certificate verification. For development
// engines only. Applied after all options, so it also covers a transport
// installed via WithHTTPClient regardless of option order.
func WithInsecureTLS() Option {
	return func(c *Client) { c.insecureTLS = true }
}

// WithEngineMetrics requests evaluation performance metrics from the engine.
func WithEngineMetrics() Option {
	return func(c *Client) { c.withMetrics = true }
}

// WithEngineTrace requests a full evaluation explanation from the engine.
func WithEngineTrace() Option {
	return func(c *Client) { c.withTrace = true }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the OPA server at baseURL. A trailing
// slash on baseURL is stripped.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:  defaultMaxRetries,
		backoffBase: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.insecureTLS {
		if t, ok := c.httpClient.Transport.(*http.Transport); ok {
			if t.TLSClientConfig == nil {
				t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
			t.TLSClientConfig.InsecureSkipVerify = true
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Close releases the client's connection pool. The client must not be used
// after Close.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Evaluate evaluates the policy at policyPath against input via the
// engine's Data API. Dots in the policy path become URL path segments.
func (c *Client) Evaluate(ctx context.Context, policyPath string, input map[string]any) (*authz.Decision, error) {
	endpoint := c.baseURL + "/v1/data/" + strings.ReplaceAll(policyPath, ".", "/")
	query := url.Values{}
	if c.withMetrics {
		query.Set("metrics", "true")
	}
	if c.withTrace {
		query.Set("explain", "full")
	}
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	payload, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, &authz.EvaluationError{
			PolicyPath:  policyPath,
			Input:       input,
			EngineError: err.Error(),
			Err:         err,
		}
	}

	body, err := c.doRequest(ctx, http.MethodPost, endpoint, "application/json", payload)
	if err != nil {
		return nil, &authz.EvaluationError{
			PolicyPath:  policyPath,
			Input:       input,
			EngineError: err.Error(),
			Err:         err,
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &authz.EvaluationError{
			PolicyPath:  policyPath,
			Input:       input,
			EngineError: fmt.Sprintf("malformed engine response: %v", err),
			Err:         err,
		}
	}

	result, _ := raw["result"].(map[string]any)
	allow, _ := result["allow"].(bool)

	decision := &authz.Decision{
		Allow:      allow,
		DecisionID: decisionID(raw),
		Result:     raw,
		Violations: coerceViolations(result["violations"]),
		Metadata: map[string]any{
			"policy_path": policyPath,
			"metrics":     mapOrEmpty(raw["metrics"]),
			"trace":       listOrEmpty(raw["explanation"]),
		},
	}

	c.logger.Debug("policy evaluated",
		"policy_path", policyPath,
		"allow", decision.Allow,
		"decision_id", decision.DecisionID)
	return decision, nil
}

// EvaluateBatch evaluates all queries concurrently. A failed evaluation
// contributes a synthesized deny decision carrying the failure text; it
// never cancels its siblings. Results are in query order.
func (c *Client) EvaluateBatch(ctx context.Context, queries []authz.Query) []*authz.Decision {
	decisions := make([]*authz.Decision, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q authz.Query) {
			defer wg.Done()
			decision, err := c.Evaluate(ctx, q.PolicyPath, q.Input)
			if err != nil {
				c.logger.Error("batch evaluation failed",
					"policy_path", q.PolicyPath, "error", err)
				decision = authz.DenyDecision(err.Error())
			}
			decisions[i] = decision
		}(i, q)
	}
	wg.Wait()
	return decisions
}

// QueryRule evaluates the named rule under packagePath and reports whether
// its result was truthy. Used by the client-side discovery check, where the
// rule yields a bare boolean rather than a decision document.
func (c *Client) QueryRule(ctx context.Context, packagePath, ruleName string, input map[string]any) (bool, error) {
	rulePath := packagePath + "." + ruleName
	endpoint := c.baseURL + "/v1/data/" + strings.ReplaceAll(rulePath, ".", "/")

	payload, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return false, &authz.EvaluationError{
			PolicyPath:  rulePath,
			Input:       input,
			EngineError: err.Error(),
			Err:         err,
		}
	}

	body, err := c.doRequest(ctx, http.MethodPost, endpoint, "application/json", payload)
	if err != nil {
		return false, &authz.EvaluationError{
			PolicyPath:  rulePath,
			Input:       input,
			EngineError: err.Error(),
			Err:         err,
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return false, &authz.EvaluationError{
			PolicyPath:  rulePath,
			Input:       input,
			EngineError: fmt.Sprintf("malformed engine response: %v", err),
			Err:         err,
		}
	}
	return truthy(raw["result"]), nil
}

// HealthCheck reports whether the engine answers its health endpoint.
// Failures are logged, never propagated, and never retried.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req, "")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("engine health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
	return resp.StatusCode == http.StatusOK
}

// UploadPolicy installs policy module text at policyPath.
func (c *Client) UploadPolicy(ctx context.Context, policyPath, content string) bool {
	endpoint := c.baseURL + "/v1/policies/" + policyPath
	_, err := c.doRequest(ctx, http.MethodPut, endpoint, "text/plain", []byte(content))
	if err != nil {
		c.logger.Error("policy upload failed", "policy_path", policyPath, "error", err)
		return false
	}
	return true
}

// DeletePolicy removes the policy module at policyPath.
func (c *Client) DeletePolicy(ctx context.Context, policyPath string) bool {
	endpoint := c.baseURL + "/v1/policies/" + policyPath
	_, err := c.doRequest(ctx, http.MethodDelete, endpoint, "", nil)
	if err != nil {
		c.logger.Error("policy delete failed", "policy_path", policyPath, "error", err)
		return false
	}
	return true
}

// ListPolicies returns the paths of all installed policy modules, sorted.
// Returns an empty slice on failure.
func (c *Client) ListPolicies(ctx context.Context) []string {
	body, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/v1/policies", "", nil)
	if err != nil {
		c.logger.Error("policy list failed", "error", err)
		return []string{}
	}
	var raw struct {
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Error("policy list response malformed", "error", err)
		return []string{}
	}
	paths := make([]string, 0, len(raw.Result))
	for path := range raw.Result {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// UploadData writes a JSON data document at dataPath for use by policies.
func (c *Client) UploadData(ctx context.Context, dataPath string, value any) bool {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("data upload failed", "data_path", dataPath, "error", err)
		return false
	}
	endpoint := c.baseURL + "/v1/data/" + dataPath
	_, err = c.doRequest(ctx, http.MethodPut, endpoint, "application/json", payload)
	if err != nil {
		c.logger.Error("data upload failed", "data_path", dataPath, "error", err)
		return false
	}
	return true
}

// statusError reports a completed HTTP response with an error status. It is
// never retried: the engine answered, so repeating the request will not
// change the outcome.
type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	msg := fmt.Sprintf("engine returned status %d", e.code)
	var detail struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.body, &detail) == nil && detail.Message != "" {
		msg += ": " + detail.Message
	}
	return msg
}

// doRequest performs one HTTP request with retry on transient transport
// failures. The delay before retry attempt n is backoffBase * 2^n. Error
// statuses from a completed response are returned as *statusError without
// retrying. Exhausted retries return an *authz.ConnectionError wrapping the
// last transport error.
func (c *Client) doRequest(ctx context.Context, method, endpoint, contentType string, body []byte) ([]byte, error) {
	var respBody []byte

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.backoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			return !errors.As(err, &se)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("engine request failed, retrying",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"error", err)
		}),
	)

	err := r.Do(func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		c.setHeaders(req, contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 {
			return &statusError{code: resp.StatusCode, body: data}
		}
		respBody = data
		return nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &authz.ConnectionError{URL: endpoint, Err: err}
	}
	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// decisionID returns the engine-assigned decision ID when present, else a
// generated one so every decision is audit-correlatable.
func decisionID(raw map[string]any) string {
	if id, ok := raw["decision_id"].(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// coerceViolations normalizes the engine's violations field: a string
// becomes a single-element list, a list keeps its entries (non-strings
// rendered), anything else becomes an empty list.
func coerceViolations(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{}
	}
}

// truthy mirrors the engine's notion of a truthy rule result: undefined,
// false, zero, empty string, and empty collections are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func mapOrEmpty(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func listOrEmpty(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

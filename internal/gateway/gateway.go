// Package gateway sends chat and reset requests to the gemichat backend and maps
// their outcomes to conversation messages.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"gemichat/internal/logger"
	"gemichat/internal/version"
	"gemichat/pkg/chattypes"
)

// Backend routes, relative to the configured endpoint.
const (
	RouteChat  = "/ask-gemini"
	RouteReset = "/reset"
)

// FailureMarker prefixes synthesized failure text.
const FailureMarker = "❌"

// ErrRequestInFlight is returned when the guard refuses a request because another
// one has not settled yet. Nothing is sent in that case.
var ErrRequestInFlight = errors.New("a request is already in flight")

// HTTPError describes a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned %d %s: %s", e.StatusCode, e.StatusText, e.Body)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, e.StatusText)
}

// Result is the single outcome of a request. Exactly one of Message or Err is meaningful.
type Result struct {
	Message chattypes.Message
	Err     error
}

// Gateway issues requests to one backend and tracks how many are in flight.
type Gateway struct {
	endpoint  string
	client    *http.Client
	jar       http.CookieJar
	log       *log.Logger
	guard     bool
	multipart bool
	timeout   time.Duration

	inFlight atomic.Int32
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCookieJar attaches a jar so backend cookies are stored and replayed.
func WithCookieJar(jar http.CookieJar) Option {
	return func(g *Gateway) {
		g.jar = jar
	}
}

// WithGuard enables or disables the single in-flight request guard (enabled by default).
func WithGuard(enabled bool) Option {
	return func(g *Gateway) {
		g.guard = enabled
	}
}

// WithMultipart forces multipart bodies even for text-only chat requests.
func WithMultipart(enabled bool) Option {
	return func(g *Gateway) {
		g.multipart = enabled
	}
}

// WithTimeout bounds each request. Zero, the default, means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

// New creates a gateway for endpoint, e.g. "http://localhost:5000/api".
func New(endpoint string, opts ...Option) *Gateway {
	g := &Gateway{
		endpoint: strings.TrimRight(endpoint, "/"),
		guard:    true,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.client = &http.Client{Jar: g.jar}
	g.log = logger.Component("gateway")
	g.log.Debug("Gateway initialized", "endpoint", g.endpoint, "guard", g.guard, "multipart", g.multipart)
	return g
}

// Endpoint returns the base URL requests are sent to.
func (g *Gateway) Endpoint() string {
	return g.endpoint
}

// Guarded reports whether overlapping requests are refused.
func (g *Gateway) Guarded() bool {
	return g.guard
}

// IsLoading reports whether any request has not settled yet.
func (g *Gateway) IsLoading() bool {
	return g.inFlight.Load() > 0
}

// SendChat posts message and token (and image, when not nil) to the chat route.
// The in-flight flag is raised before SendChat returns and lowered when the
// request settles, before the result is delivered on the channel.
func (g *Gateway) SendChat(ctx context.Context, message string, image *chattypes.Image, token string) (<-chan Result, error) {
	fields := url.Values{"message": {message}, "token": {token}}

	var (
		body        []byte
		contentType string
		err         error
	)
	if image != nil || g.multipart {
		body, contentType, err = encodeMultipart(fields, image)
		if err != nil {
			return nil, err
		}
	} else {
		body, contentType = []byte(fields.Encode()), "application/x-www-form-urlencoded"
	}

	return g.send(ctx, RouteChat, body, contentType)
}

// SendReset asks the backend to forget the conversation bound to token.
func (g *Gateway) SendReset(ctx context.Context, token string) (<-chan Result, error) {
	body := url.Values{"token": {token}}.Encode()
	return g.send(ctx, RouteReset, []byte(body), "application/x-www-form-urlencoded")
}

func (g *Gateway) send(ctx context.Context, route string, body []byte, contentType string) (<-chan Result, error) {
	if !g.acquire() {
		logger.RequestLifecycle(g.log, route, "refused", "reason", "in flight")
		return nil, ErrRequestInFlight
	}
	logger.RequestLifecycle(g.log, route, "sending", "body_length", len(body))

	results := make(chan Result, 1)
	go func() {
		defer close(results)

		var res Result
		func() {
			defer g.release()
			res = g.do(ctx, route, body, contentType)
		}()
		results <- res
	}()
	return results, nil
}

func (g *Gateway) acquire() bool {
	if g.guard {
		return g.inFlight.CompareAndSwap(0, 1)
	}
	g.inFlight.Add(1)
	return true
}

func (g *Gateway) release() {
	g.inFlight.Add(-1)
}

func (g *Gateway) do(ctx context.Context, route string, body []byte, contentType string) Result {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	target := g.endpoint + route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		g.log.Error("Failed to create request", "error", err, "url", target)
		return Result{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("Request failed", "error", err, "url", target)
		return Result{Err: fmt.Errorf("request to %s failed: %w", route, err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.log.Error("Failed to read response body", "error", err, "url", target, "status", resp.StatusCode)
		return Result{Err: fmt.Errorf("failed to read response from %s: %w", route, err)}
	}

	logger.RequestLifecycle(g.log, route, "settled", "status", resp.StatusCode, "body_length", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Err: &HTTPError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(data),
		}}
	}
	return Result{Message: chattypes.NewAssistantMessage(string(data))}
}

// statusText extracts "Not Found" from "404 Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func encodeMultipart(fields url.Values, image *chattypes.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, name := range []string{"message", "token"} {
		if err := writer.WriteField(name, fields.Get(name)); err != nil {
			return nil, "", fmt.Errorf("failed to encode %s field: %w", name, err)
		}
	}

	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
		contentType := image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", fmt.Errorf("failed to encode image: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// Await blocks until the request settles or ctx is done.
func Await(ctx context.Context, results <-chan Result) (chattypes.Message, error) {
	select {
	case res, ok := <-results:
		if !ok {
			return chattypes.Message{}, errors.New("request produced no result")
		}
		return res.Message, res.Err
	case <-ctx.Done():
		return chattypes.Message{}, ctx.Err()
	}
}

// FailureMessage turns a request error into the assistant bubble shown to the user:
// the backend's error text when it sent one, otherwise a synthesized
// "❌<code> <status text>", or "❌<error>" for transport failures.
func FailureMessage(err error) chattypes.Message {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Body != "" {
			return chattypes.NewFailureMessage(httpErr.Body)
		}
		return chattypes.NewFailureMessage(fmt.Sprintf("%s%d %s", FailureMarker, httpErr.StatusCode, httpErr.StatusText))
	}
	return chattypes.NewFailureMessage(FailureMarker + err.Error())
}

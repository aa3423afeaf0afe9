package usuarios

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ResourcePath is appended to the configured base URL.
const ResourcePath = "/api/usuarios"

// Fetch outcomes reported to a FetchRecorder.
const (
	OutcomeSuccess    = "success"
	OutcomeHTTPStatus = "http_status"
	OutcomeTransport  = "transport"
)

// FetchRecorder receives one observation per completed fetch.
type FetchRecorder interface {
	ObserveFetch(outcome string, elapsed time.Duration)
}

// Client wraps interactions with the usuarios service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    FetchRecorder
	logger     *slog.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics reports fetch outcomes to the recorder.
func WithMetrics(rec FetchRecorder) ClientOption {
	return func(c *Client) { c.metrics = rec }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a new client. The default HTTP client has no timeout.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the full URL requested by FetchUsers.
func (c *Client) Endpoint() string {
	return c.baseURL + ResourcePath
}

type wireUser struct {
	ID       string  `json:"id"`
	Nombre   string  `json:"nombre"`
	Apellido string  `json:"apellido"`
	Correo   string  `json:"correo"`
	Carrera  *string `json:"carrera"`
}

type wirePayload struct {
	Data []wireUser `json:"data"`
}

var errNotObject = errors.New("response body is not a JSON object")

// FetchUsers performs a single GET against the usuarios endpoint. Failures are
// returned as *HTTPStatusError or *TransportError.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	if c == nil {
		return nil, newTransportError(errors.New("usuarios client not initialised"))
	}
	start := time.Now()
	users, err := c.fetch(ctx)
	c.observe(err, time.Since(start))
	return users, err
}

func (c *Client) fetch(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		return nil, newTransportError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(err)
	}
	// Unmarshal rejects trailing data after the top-level value.
	var payload *wirePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, newTransportError(err)
	}
	if payload == nil {
		return nil, newTransportError(errNotObject)
	}

	users := make([]User, len(payload.Data))
	for i, row := range payload.Data {
		users[i] = User{
			ID:        row.ID,
			FirstName: row.Nombre,
			LastName:  row.Apellido,
			Email:     row.Correo,
			Career:    row.Carrera,
		}
	}
	return users, nil
}

func (c *Client) observe(err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		outcome = OutcomeHTTPStatus
	default:
		outcome = OutcomeTransport
	}
	if err != nil {
		c.logger.Warn("fetch usuarios failed",
			slog.String("endpoint", c.Endpoint()),
			slog.String("outcome", outcome),
			slog.Any("error", err))
	} else {
		c.logger.Debug("fetch usuarios", slog.String("endpoint", c.Endpoint()), slog.Duration("elapsed", elapsed))
	}
	if c.metrics != nil {
		c.metrics.ObserveFetch(outcome, elapsed)
	}
}

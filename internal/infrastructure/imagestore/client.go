package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
	"github.com/cybertheory/vendordashboard/internal/reliability/circuitbreaker"
)

// Client talks to the external image-storage function. The privileged
// service key is held here, injected on every outbound call, and never
// reaches a browser client.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a client for the storage function at baseURL.
func NewClient(baseURL, serviceKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("image store circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetImageStoreCircuitOpen(to == circuitbreaker.StateOpen)
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// Upload forwards one image file to the storage function and returns the
// upstream response body verbatim. A non-2xx upstream response comes back
// as *domain.UpstreamError carrying the upstream status and message.
func (c *Client) Upload(ctx context.Context, upload domain.ImageUpload) ([]byte, error) {
	if !c.breaker.AllowRequest() {
		return nil, &domain.UpstreamError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "image store unavailable",
		}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("token", upload.EditToken); err != nil {
		return nil, fmt.Errorf("failed to build upload payload: %w", err)
	}
	if err := mw.WriteField("postId", upload.PostID); err != nil {
		return nil, fmt.Errorf("failed to build upload payload: %w", err)
	}
	if err := mw.WriteField("config_id", upload.ConfigID); err != nil {
		return nil, fmt.Errorf("failed to build upload payload: %w", err)
	}
	part, err := mw.CreateFormFile("image", upload.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload payload: %w", err)
	}
	if _, err := io.Copy(part, upload.Data); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-image", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	body, upstreamStatus, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if upstreamStatus < 200 || upstreamStatus > 299 {
		return nil, &domain.UpstreamError{StatusCode: upstreamStatus, Message: upstreamMessage(body)}
	}
	return body, nil
}

// Cleanup removes every stored image for a post, authorized by the post's
// edit token. Called as part of post deletion.
func (c *Client) Cleanup(ctx context.Context, postID, configID, editToken string) error {
	if !c.breaker.AllowRequest() {
		return &domain.UpstreamError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "image store unavailable",
		}
	}

	payload, err := json.Marshal(map[string]string{
		"postId":    postID,
		"config_id": configID,
		"token":     editToken,
	})
	if err != nil {
		return fmt.Errorf("failed to build cleanup payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cleanup-post", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build cleanup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	body, upstreamStatus, err := c.do(req)
	if err != nil {
		return err
	}
	// 404 from the function means nothing is stored for this post; the
	// cleanup goal is already met.
	if upstreamStatus == http.StatusNotFound {
		return nil
	}
	if upstreamStatus < 200 || upstreamStatus > 299 {
		return &domain.UpstreamError{StatusCode: upstreamStatus, Message: upstreamMessage(body)}
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("image store request failed",
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("%w: image store unreachable", domain.ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, 0, fmt.Errorf("%w: failed to read image store response", domain.ErrUpstream)
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	return body, resp.StatusCode, nil
}

// upstreamMessage extracts a short human-readable message from an upstream
// error body, falling back to the raw body.
func upstreamMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "image store error"
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

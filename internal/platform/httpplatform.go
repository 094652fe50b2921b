// internal/platform/httpplatform.go
// HTTPPlatform implements rw.Platform by asking a remote HTTP service for
// the bytecode of any internal class name the subtype oracle or a
// transformer needs but that was never registered via addJar/addClass. It
// is grounded on the teacher's internal/agent/exporter/grpc_exporter.go for
// its retry/timeout posture, cut over to plain net/http since the contract
// here is a single request/response lookup rather than a stream, and on
// pkg/auth.Signer for the bearer token attached to every request.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/pkg/auth"
)

// HTTPConfig controls an HTTPPlatform's connection to a remote classfile
// store.
type HTTPConfig struct {
	BaseURL string // e.g. "https://classes.internal.example.com"
	Timeout time.Duration

	// Auth, if non-nil, mints a fresh bearer token for every request via
	// Signer.SignRun(RunID). A zero Auth disables the Authorization header.
	Auth  *auth.Signer
	RunID string

	// Retry controls retry on every failure other than a 404 (network
	// errors, any non-2xx status, token signing errors); nil uses a
	// capped exponential backoff identical in shape to the teacher's
	// exporter default.
	Retry backoff.BackOff
}

// HTTPPlatform implements rw.Platform over HTTP GET requests of the form
// {BaseURL}/classes/{internalName}.
type HTTPPlatform struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPPlatform constructs an HTTPPlatform with sane defaults.
func NewHTTPPlatform(cfg HTTPConfig) *HTTPPlatform {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retry == nil {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 250 * time.Millisecond
		bo.MaxInterval = 5 * time.Second
		bo.MaxElapsedTime = 30 * time.Second
		cfg.Retry = bo
	}
	return &HTTPPlatform{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// GetClassBytecode implements rw.Platform.
func (h *HTTPPlatform) GetClassBytecode(ctx context.Context, internalName string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/classes/%s", h.cfg.BaseURL, url.PathEscape(internalName))

	bo := h.cfg.Retry
	bo.Reset()

	var lastErr error
	for {
		body, err := h.doGet(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if _, notFound := err.(*ClassNotFound); notFound {
			return nil, err
		}
		lastErr = err

		next := bo.NextBackOff()
		if next == backoff.Stop {
			return nil, &FetchError{InternalName: internalName, Cause: lastErr}
		}
		logging.Sugar().Debugw("platform fetch retrying", "class", internalName, "err", err)
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return nil, &FetchError{InternalName: internalName, Cause: ctx.Err()}
		}
	}
}

func (h *HTTPPlatform) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if h.cfg.Auth != nil {
		token, err := h.cfg.Auth.SignRun(h.cfg.RunID)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &ClassNotFound{}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("platform: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ClassNotFound is returned when the remote platform has no record of the
// requested internal name. It deliberately does not retry: a 404 is a
// definitive answer, not a transient failure.
type ClassNotFound struct{}

func (e *ClassNotFound) Error() string { return "platform: class not found" }

// FetchError wraps the last transport-level failure once retries are
// exhausted.
type FetchError struct {
	InternalName string
	Cause        error
}

func (e *FetchError) Error() string {
	return "platform: could not fetch " + e.InternalName + ": " + e.Cause.Error()
}

func (e *FetchError) Unwrap() error { return e.Cause }

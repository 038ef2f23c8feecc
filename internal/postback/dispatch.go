package postback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// Outbound request budget; dispatch never blocks a request worker longer.
	dispatchTimeout = 30 * time.Second
	maxRedirects    = 5

	// UserAgent identifies regular postback firings.
	UserAgent = "s2s-postback/1.0"
	// ManualTestUserAgent identifies firings from the manual test tool.
	ManualTestUserAgent = "s2s-postback-manual-test/1.0"
)

// Result captures the outcome of one outbound postback request. Transport
// failures are data, not errors: Err is set, StatusCode stays zero.
type Result struct {
	URL        string        `json:"url"`
	Success    bool          `json:"success"`
	StatusCode int           `json:"http_status"`
	Body       string        `json:"response_body"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"response_time_ms"`
	Err        string        `json:"error_message,omitempty"`
}

// Dispatcher performs single outbound GET requests against resolved URLs.
type Dispatcher struct {
	client    *http.Client
	userAgent string
}

// NewDispatcher returns a Dispatcher with the standard timeout and redirect cap.
func NewDispatcher() *Dispatcher {
	return newDispatcher(UserAgent)
}

// NewManualTestDispatcher returns a Dispatcher identifying as the manual test tool.
func NewManualTestDispatcher() *Dispatcher {
	return newDispatcher(ManualTestUserAgent)
}

func newDispatcher(userAgent string) *Dispatcher {
	return &Dispatcher{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: dispatchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Dispatch fires a single GET against the URL and captures status, body, and
// elapsed time. It never returns a Go error to the caller: DNS, connect, and
// timeout failures are folded into the Result so the surrounding conversion
// flow is never interrupted. The context bounds the call in addition to the
// client timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, targetURL string) Result {
	start := time.Now()
	result := Result{URL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Err = fmt.Sprintf("invalid postback url: %v", err)
		result.Duration = time.Since(start)
		result.DurationMs = result.Duration.Milliseconds()
		return result
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		result.Err = describeTransportError(err)
		result.Duration = time.Since(start)
		result.DurationMs = result.Duration.Milliseconds()
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)

	result.StatusCode = resp.StatusCode
	result.Body = string(body)
	result.Duration = time.Since(start)
	result.DurationMs = result.Duration.Milliseconds()

	if readErr != nil {
		result.Err = fmt.Sprintf("failed reading response body: %v", readErr)
		return result
	}

	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 400
	return result
}

func describeTransportError(err error) string {
	var urlErr interface{ Unwrap() error }
	if errors.As(err, &urlErr) {
		if inner := urlErr.Unwrap(); inner != nil {
			return inner.Error()
		}
	}
	return err.Error()
}

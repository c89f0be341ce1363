package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

var (
	// ErrOffline marks transport failures caused by missing connectivity.
	ErrOffline = errors.New("no internet connection")
	// ErrMissingAPIKey is returned before any request when no key is configured.
	ErrMissingAPIKey = errors.New("news API key is not configured")
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider returned HTTP %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// Text shown to the user for failed fetches.
const (
	MessageOffline = "No internet connection."
	MessageFailed  = "Failed to fetch news"
)

// UserMessage maps a fetch error to the text shown in the status bar.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrOffline) {
		return MessageOffline
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return MessageFailed + ": set provider.api_key or NEWSAPI_KEY"
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return MessageFailed + ": " + se.Message
	}
	return MessageFailed
}

// classifyTransport wraps errors from http.Client.Do. Connectivity failures
// are tagged with ErrOffline; cancellation is passed through unwrapped. The
// request URL inside the error is redacted either way.
func classifyTransport(err error) error {
	redactAPIKey(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isOffline(err) {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	return fmt.Errorf("requesting provider: %w", err)
}

// redactAPIKey removes the apiKey parameter from the URL a *url.Error
// reports, so transport failures can be logged and shown.
func redactAPIKey(err error) {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		uerr.URL = "(redacted)"
		return
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	uerr.URL = u.String()
}

func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

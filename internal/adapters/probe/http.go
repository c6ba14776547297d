package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelpublisher/internal/core/domain"
)

const DefaultTimeout = 20 * time.Second

// UnreachableError means the resource could not be fetched.
type UnreachableError struct {
	URL        string
	StatusCode int    // set when the host answered with an HTTP error
	Reason     string // set for checks that fail before any request
	Err        error  // set for transport failures
}

func (e *UnreachableError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("URL returned HTTP %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	default:
		return e.Reason
	}
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool { return target == domain.ErrResourceUnreachable }

// UnexpectedContentTypeError means the resource does not look like a video payload.
type UnexpectedContentTypeError struct {
	URL         string
	ContentType string
}

func (e *UnexpectedContentTypeError) Error() string {
	ct := e.ContentType
	if ct == "" {
		ct = "N/A"
	}
	return "Unexpected Content-Type: " + ct
}

func (e *UnexpectedContentTypeError) Is(target error) bool {
	return target == domain.ErrUnexpectedContentType
}

// HTTPProber implements ports.Prober using HEAD with a ranged GET fallback.
type HTTPProber struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPProber creates a new HTTPProber. A nil client gets a default one.
func NewHTTPProber(client *http.Client, timeout time.Duration) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{client: client, timeout: timeout, userAgent: "ig-reels-uploader/1.0"}
}

// Check verifies that videoURL is HTTPS, answers below 400 and serves video or octet-stream content.
func (p *HTTPProber) Check(ctx context.Context, videoURL string) error {
	u, err := url.Parse(videoURL)
	if err != nil {
		return &UnreachableError{URL: videoURL, Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	if !strings.EqualFold(u.Scheme, "https") || u.Host == "" {
		return &UnreachableError{URL: videoURL, Reason: "URL must be an absolute https:// URL"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctype, err := p.head(ctx, videoURL)
	if err != nil {
		return err
	}
	if isVideoType(ctype) {
		return nil
	}

	// Some hosts omit Content-Type on HEAD.
	ctype, err = p.peek(ctx, videoURL)
	if err != nil {
		return err
	}
	if !isVideoType(ctype) {
		return &UnexpectedContentTypeError{URL: videoURL, ContentType: ctype}
	}
	return nil
}

// Probe runs Check and flattens the outcome for diagnostics.
func (p *HTTPProber) Probe(ctx context.Context, videoURL string) (bool, string) {
	if err := p.Check(ctx, videoURL); err != nil {
		return false, err.Error()
	}
	return true, "OK"
}

func (p *HTTPProber) head(ctx context.Context, videoURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, videoURL, nil)
	if err != nil {
		return "", &UnreachableError{URL: videoURL, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &UnreachableError{URL: videoURL, Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &UnreachableError{URL: videoURL, StatusCode: resp.StatusCode}
	}
	return resp.Header.Get("Content-Type"), nil
}

// peek issues a single-byte ranged GET and closes it after the headers.
func (p *HTTPProber) peek(ctx context.Context, videoURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", &UnreachableError{URL: videoURL, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &UnreachableError{URL: videoURL, Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &UnreachableError{URL: videoURL, StatusCode: resp.StatusCode}
	}
	return resp.Header.Get("Content-Type"), nil
}

func isVideoType(ctype string) bool {
	ctype = strings.ToLower(ctype)
	return strings.Contains(ctype, "video") || strings.Contains(ctype, "octet-stream")
}

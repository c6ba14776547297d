package graph

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelpublisher/internal/core/domain"
	"reelpublisher/internal/core/ports"
)

const (
	DefaultBaseURL      = "https://graph.facebook.com/v23.0"
	DefaultWriteTimeout = 120 * time.Second
	DefaultReadTimeout  = 60 * time.Second

	userAgent     = "ig-reels-uploader/1.0"
	maxBodyBytes  = 1 << 20
	bodyExcerpt   = 500
	mediaTypeReel = "REELS"
)

// Config holds the credentials and endpoint of the Graph API.
type Config struct {
	BaseURL      string
	AccessToken  string
	UserID       string
	AppSecret    string        // optional; enables appsecret_proof
	WriteTimeout time.Duration // create and publish
	ReadTimeout  time.Duration // status and permalink
}

// Client implements ports.JobClient using the Instagram Graph API.
type Client struct {
	cfg    Config
	proof  string
	client *http.Client
}

// NewClient creates a new Client. A nil httpClient gets a default keep-alive client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:    cfg,
		proof:  AppSecretProof(cfg.AppSecret, cfg.AccessToken),
		client: httpClient,
	}
}

// AppSecretProof returns hex(HMAC-SHA256(secret, token)), or "" without a secret.
func AppSecretProof(secret, token string) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateJob creates a Reels media container ingesting videoURL.
func (c *Client) CreateJob(ctx context.Context, videoURL, caption string) (*ports.CreateResponse, error) {
	form := url.Values{
		"media_type":    {mediaTypeReel},
		"caption":       {caption},
		"video_url":     {videoURL},
		"share_to_feed": {"true"},
	}
	var out ports.CreateResponse
	if err := c.do(ctx, "create", http.MethodPost, c.cfg.UserID+"/media", form, c.cfg.WriteTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus reads the processing status of a media container.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*ports.StatusResponse, error) {
	q := url.Values{"fields": {"status_code,status"}}
	var out ports.StatusResponse
	if err := c.do(ctx, "status", http.MethodGet, jobID, q, c.cfg.ReadTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Publish publishes a finished media container.
func (c *Client) Publish(ctx context.Context, jobID string) (*ports.PublishResponse, error) {
	form := url.Values{"creation_id": {jobID}}
	var out ports.PublishResponse
	if err := c.do(ctx, "publish", http.MethodPost, c.cfg.UserID+"/media_publish", form, c.cfg.WriteTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveReference fetches the permalink of published media.
func (c *Client) ResolveReference(ctx context.Context, mediaID string) (*ports.ReferenceResponse, error) {
	q := url.Values{"fields": {"permalink"}}
	var out ports.ReferenceResponse
	if err := c.do(ctx, "permalink", http.MethodGet, mediaID, q, c.cfg.ReadTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Error *struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		Subcode   int    `json:"error_subcode"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// do sends one authenticated call and decodes the reply into out.
// GET carries params in the query string, POST as a form body.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params.Set("access_token", c.cfg.AccessToken)
	if c.proof != "" {
		params.Set("appsecret_proof", c.proof)
	}

	endpoint := c.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")
	var body io.Reader
	if method == http.MethodGet {
		endpoint += "?" + params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &domain.APIError{Op: op, Kind: domain.KindNetwork, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.APIError{Op: op, Kind: domain.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &domain.APIError{Op: op, Kind: domain.KindNetwork, HTTPStatus: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.APIError{
			Op:         op,
			Kind:       domain.KindDecode,
			HTTPStatus: resp.StatusCode,
			Body:       excerpt(raw),
			Err:        err,
		}
	}
	if e := env.Error; e != nil {
		return &domain.APIError{
			Op:         op,
			Kind:       domain.KindEnvelope,
			Message:    e.Message,
			Type:       e.Type,
			Code:       e.Code,
			Subcode:    e.Subcode,
			TraceID:    e.FBTraceID,
			HTTPStatus: resp.StatusCode,
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &domain.APIError{Op: op, Kind: domain.KindHTTPStatus, HTTPStatus: resp.StatusCode, Body: excerpt(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.APIError{Op: op, Kind: domain.KindDecode, HTTPStatus: resp.StatusCode, Body: excerpt(raw), Err: err}
	}
	return nil
}

func excerpt(raw []byte) string {
	if len(raw) > bodyExcerpt {
		raw = raw[:bodyExcerpt]
	}
	return string(raw)
}

var _ ports.JobClient = (*Client)(nil)

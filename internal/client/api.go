package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/feed"
	"Picfeed/internal/core/posts"
)

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 64 << 10

// TokenSource returns the caller's bearer token, or "" when signed out
type TokenSource func(ctx context.Context) (string, error)

// APIError is a non-2xx response. It unwraps to the matching apperr kind.
type APIError struct {
	Type       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperr.ErrUnauthenticated
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusRequestEntityTooLarge:
		return apperr.ErrPayloadTooLarge
	case http.StatusBadRequest:
		return apperr.ErrInvalidInput
	default:
		return nil
	}
}

// FeedQuery selects a feed page
type FeedQuery struct {
	UserID string // Optional author filter
	Page   int
	Limit  int
}

// NewPost is an image upload with an optional caption
type NewPost struct {
	Caption     *string
	Filename    string
	ContentType string
	Image       []byte
}

// APIClient talks to the feed service over HTTP.
// Idempotent requests (GET, DELETE) are retried on transport errors and 5xx;
// POSTs are sent once so a lost response never repeats a write.
type APIClient struct {
	baseURL string
	tokens  TokenSource
	retry   *retryablehttp.Client
	once    *http.Client
}

// APIClientOption configures an APIClient
type APIClientOption func(*APIClient)

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) APIClientOption {
	return func(c *APIClient) {
		c.retry.HTTPClient = hc
		c.once = hc
	}
}

// WithRetries sets the retry count and backoff bounds for idempotent requests
func WithRetries(retryMax int, waitMin, waitMax time.Duration) APIClientOption {
	return func(c *APIClient) {
		c.retry.RetryMax = retryMax
		c.retry.RetryWaitMin = waitMin
		c.retry.RetryWaitMax = waitMax
	}
}

// NewAPIClient creates a client for baseURL. tokens may be nil for anonymous use.
func NewAPIClient(baseURL string, tokens TokenSource, logger *slog.Logger, opts ...APIClientOption) *APIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = func(context.Context) (string, error) { return "", nil }
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger
	// Return the last response instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		retry:   rc,
		once:    rc.HTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetFeed fetches one feed page. An authenticated caller gets like state.
func (c *APIClient) GetFeed(ctx context.Context, q FeedQuery) (*feed.Page, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	path := "/posts"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page feed.Page
	if err := c.doIdempotent(ctx, http.MethodGet, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type toggleResponse struct {
	LikesCount int  `json:"likesCount"`
	Success    bool `json:"success"`
}

// Like likes the post and returns the server's count
func (c *APIClient) Like(ctx context.Context, postID string) (int, error) {
	body, err := json.Marshal(map[string]string{"postId": postID})
	if err != nil {
		return 0, err
	}
	var resp toggleResponse
	if err := c.doOnce(ctx, http.MethodPost, "/likes", "application/json", bytes.NewReader(body), &resp); err != nil {
		return 0, err
	}
	return resp.LikesCount, nil
}

// Unlike removes the like and returns the server's count
func (c *APIClient) Unlike(ctx context.Context, postID string) (int, error) {
	var resp toggleResponse
	if err := c.doIdempotent(ctx, http.MethodDelete, "/likes?postId="+url.QueryEscape(postID), &resp); err != nil {
		return 0, err
	}
	return resp.LikesCount, nil
}

// CreatePost uploads the image as multipart form data
func (c *APIClient) CreatePost(ctx context.Context, p NewPost) (*posts.Post, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, p.Filename))
	header.Set("Content-Type", p.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(p.Image); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if p.Caption != nil {
		if err := mw.WriteField("caption", *p.Caption); err != nil {
			return nil, fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var resp struct {
		Post    *posts.Post `json:"post"`
		Success bool        `json:"success"`
	}
	if err := c.doOnce(ctx, http.MethodPost, "/posts", mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	if resp.Post == nil {
		return nil, fmt.Errorf("create post: response carried no post")
	}
	return resp.Post, nil
}

func (c *APIClient) doIdempotent(ctx context.Context, method, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if err := c.authorize(ctx, req.Header); err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.retry.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decodeResponse(resp, out)
}

func (c *APIClient) doOnce(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if err := c.authorize(ctx, req.Header); err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.once.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decodeResponse(resp, out)
}

func (c *APIClient) authorize(ctx context.Context, h http.Header) error {
	token, err := c.tokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Type == "" {
			apiErr.Type = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsAuthError reports whether err is the server rejecting the caller's identity
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

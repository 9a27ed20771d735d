package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/skandydoc/instagram-automation-tool/config"
	"github.com/skandydoc/instagram-automation-tool/models"
)

// DispatchErrorKind classifies a failed publish attempt
type DispatchErrorKind string

const (
	// DispatchErrorTransient marks failures worth retrying (network, rate
	// limits, 5xx responses).
	DispatchErrorTransient DispatchErrorKind = "transient"
	// DispatchErrorFatal marks failures that will not succeed on retry
	// (invalid token, rejected media).
	DispatchErrorFatal DispatchErrorKind = "fatal"
)

// DispatchError is the classified outcome of a failed publish attempt
type DispatchError struct {
	Kind    DispatchErrorKind
	Code    int
	Message string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed (%s, code %d): %s", e.Kind, e.Code, e.Message)
}

// IsFatalDispatchError reports whether the error is a non-retryable dispatch failure
func IsFatalDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Kind == DispatchErrorFatal
}

// PostPublisher is the gateway the dispatcher talks to. Kept minimal so
// tests can substitute a fake.
type PostPublisher interface {
	PublishPost(ctx context.Context, account *models.Account, post *models.Post) (string, error)
}

// InstagramClient publishes posts through the Instagram Graph API: first a
// media container is created, then the container is published.
type InstagramClient struct {
	cfg        config.InstagramConfig
	httpClient *http.Client
}

// NewInstagramClient creates a Graph API client
func NewInstagramClient(cfg config.InstagramConfig) *InstagramClient {
	return &InstagramClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type graphResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// PublishPost implements PostPublisher
func (c *InstagramClient) PublishPost(ctx context.Context, account *models.Account, post *models.Post) (string, error) {
	containerID, err := c.createContainer(ctx, account, post)
	if err != nil {
		return "", err
	}

	return c.publishContainer(ctx, account, containerID)
}

func (c *InstagramClient) createContainer(ctx context.Context, account *models.Account, post *models.Post) (string, error) {
	if post.ContentType == models.ContentTypeCarousel {
		return c.createCarouselContainer(ctx, account, post)
	}

	params := url.Values{}
	params.Set("image_url", post.MediaURLs[0])
	if post.Caption != nil {
		params.Set("caption", *post.Caption)
	}
	if post.ContentType == models.ContentTypeStory {
		params.Set("media_type", "STORIES")
	}

	return c.call(ctx, account, fmt.Sprintf("%s/media", account.InstagramID), params)
}

func (c *InstagramClient) createCarouselContainer(ctx context.Context, account *models.Account, post *models.Post) (string, error) {
	children := make([]string, 0, len(post.MediaURLs))
	for _, mediaURL := range post.MediaURLs {
		params := url.Values{}
		params.Set("image_url", mediaURL)
		params.Set("is_carousel_item", "true")
		childID, err := c.call(ctx, account, fmt.Sprintf("%s/media", account.InstagramID), params)
		if err != nil {
			return "", err
		}
		children = append(children, childID)
	}

	params := url.Values{}
	params.Set("media_type", "CAROUSEL")
	childrenJSON, err := json.Marshal(children)
	if err != nil {
		return "", &DispatchError{Kind: DispatchErrorFatal, Message: fmt.Sprintf("encode carousel children: %v", err)}
	}
	params.Set("children", string(childrenJSON))
	if post.Caption != nil {
		params.Set("caption", *post.Caption)
	}

	return c.call(ctx, account, fmt.Sprintf("%s/media", account.InstagramID), params)
}

func (c *InstagramClient) publishContainer(ctx context.Context, account *models.Account, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	return c.call(ctx, account, fmt.Sprintf("%s/media_publish", account.InstagramID), params)
}

func (c *InstagramClient) call(ctx context.Context, account *models.Account, path string, params url.Values) (string, error) {
	params.Set("access_token", account.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/%s", c.cfg.GraphDomain, c.cfg.APIVersion, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(params.Encode()))
	if err != nil {
		return "", &DispatchError{Kind: DispatchErrorFatal, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &DispatchError{Kind: DispatchErrorTransient, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &DispatchError{Kind: DispatchErrorTransient, Code: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	var parsed graphResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &DispatchError{Kind: classifyStatus(resp.StatusCode), Code: resp.StatusCode, Message: fmt.Sprintf("unparseable response: %s", truncate(string(body), 200))}
	}

	if resp.StatusCode >= 400 || parsed.Error != nil {
		message := truncate(string(body), 200)
		if parsed.Error != nil {
			message = parsed.Error.Message
		}
		return "", &DispatchError{Kind: classifyStatus(resp.StatusCode), Code: resp.StatusCode, Message: message}
	}

	if parsed.ID == "" {
		return "", &DispatchError{Kind: DispatchErrorTransient, Code: resp.StatusCode, Message: "response carried no media id"}
	}

	return parsed.ID, nil
}

// classifyStatus maps HTTP status codes to retry behavior. Rate limiting and
// server errors are transient; auth and validation failures are not.
func classifyStatus(status int) DispatchErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return DispatchErrorTransient
	case status >= 500:
		return DispatchErrorTransient
	default:
		return DispatchErrorFatal
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package backend is the HTTP client for the LMS REST backend. It maps
// response statuses onto the domain error categories so callers only
// ever see the five sentinels.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"greensys-quiz-service/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchGroup retrieves the quiz definition and question list.
func (c *Client) FetchGroup(ctx context.Context, token, groupID string) (domain.QuizPayload, error) {
	var payload domain.QuizPayload
	err := c.do(ctx, http.MethodGet, "/quiz/"+url.PathEscape(groupID), token, nil, &payload)
	return payload, err
}

// FetchProfile retrieves the acting student's identity.
func (c *Client) FetchProfile(ctx context.Context, token string) (domain.Student, error) {
	var student domain.Student
	err := c.do(ctx, http.MethodGet, "/profile-siswa", token, nil, &student)
	return student, err
}

// SubmitResult posts a finished attempt. Callers send it exactly once;
// the client never retries.
func (c *Client) SubmitResult(ctx context.Context, token string, sub domain.Submission) (domain.SubmitResponse, error) {
	var resp domain.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/quiz/submit", token, sub, &resp)
	return resp, err
}

// FetchResult retrieves a stored result for the result-display screen.
func (c *Client) FetchResult(ctx context.Context, token, nilaiID string) (domain.StoredResult, error) {
	var res domain.StoredResult
	err := c.do(ctx, http.MethodGet, "/quiz-result/"+url.PathEscape(nilaiID), token, nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrValidation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrServer, err)
		}
		return nil
	}
	return statusError(resp)
}

// statusError turns a non-2xx response into the matching sentinel,
// carrying the backend's message when one is present.
func statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	msg := body.Message
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuth, msg)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: %s", domain.ErrServer, msg)
	}
}

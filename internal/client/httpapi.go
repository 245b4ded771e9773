package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/edufeedback/backend/internal/model"
	"github.com/gorilla/websocket"
)

const defaultTimeout = 15 * time.Second

// HTTPAPI implements API over the JSON endpoints.
type HTTPAPI struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPAPI creates a client for the server at baseURL. A nil hc uses a
// client with a default timeout.
func NewHTTPAPI(baseURL string, hc *http.Client) *HTTPAPI {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (a *HTTPAPI) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *HTTPAPI) currentToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *HTTPAPI) Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error) {
	var out model.RegisterResponse
	if err := a.do(ctx, http.MethodPost, "/api/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	var out model.LoginResponse
	if err := a.do(ctx, http.MethodPost, "/api/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (a *HTTPAPI) SubmitFeedback(ctx context.Context, req model.CreateFeedbackRequest) (*model.CreateFeedbackResponse, error) {
	var out model.CreateFeedbackResponse
	if err := a.do(ctx, http.MethodPost, "/api/feedback", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) History(ctx context.Context, userID int) ([]model.Feedback, error) {
	var out []model.Feedback
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/api/feedback/history/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *HTTPAPI) AllFeedback(ctx context.Context) ([]model.FeedbackWithSubmitter, error) {
	var out []model.FeedbackWithSubmitter
	if err := a.do(ctx, http.MethodGet, "/api/admin/feedback", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *HTTPAPI) Users(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := a.do(ctx, http.MethodGet, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *HTTPAPI) DeleteFeedback(ctx context.Context, id int) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/feedback/%d", id), nil, nil)
}

func (a *HTTPAPI) DeleteUser(ctx context.Context, id int) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), nil, nil)
}

// errorBody mirrors the server's failure payload.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DialChanges opens the admin change stream with the current token.
func (a *HTTPAPI) DialChanges(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(a.baseURL + "/ws/admin/changes")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if token := a.currentToken(); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: err.Error()}
		}
		return nil, err
	}
	return conn, nil
}

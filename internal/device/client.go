package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Doer is the subset of *http.Client the API client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIClient registers tokens with the word reminder API.
type APIClient struct {
	baseURL     string
	accessToken func() string
	http        Doer
}

// NewAPIClient targets baseURL, e.g. "https://example.com/api". accessToken
// is consulted on every request so a refreshed token is picked up.
func NewAPIClient(baseURL string, accessToken func() string, doer Doer) *APIClient {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        doer,
	}
}

type apiError struct {
	Error  string `json:"error"`
	Errors []struct {
		Field string `json:"field"`
		Msg   string `json:"msg"`
	} `json:"errors"`
}

// CreateFCMToken posts token for userID.
func (c *APIClient) CreateFCMToken(ctx context.Context, userID, token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/users/%s/fcmTokens", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != nil {
		if t := c.accessToken(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post fcm token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			if len(apiErr.Errors) > 0 {
				return fmt.Errorf("create fcm token: %s", apiErr.Errors[0].Msg)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("create fcm token: %s", apiErr.Error)
			}
		}
		return fmt.Errorf("create fcm token: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			Success bool `json:"success"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode fcm token response: %w", err)
	}
	if !out.Data.Success {
		return fmt.Errorf("create fcm token: server did not confirm")
	}
	return nil
}

package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const defaultHelixURL = "https://api.twitch.tv/helix"

// HelixClient resolves login names to stable user IDs so the allow-list can
// be keyed by id rather than by renameable login.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
	// BaseURL overrides the Helix endpoint (tests).
	BaseURL string
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return hc.BaseURL
	}
	return defaultHelixURL
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/users", nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Set("login", login)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("user not found")
	}
	return body.Data[0].ID, nil
}

// ResolveUserIDs maps configured logins to user IDs, skipping (with a warning)
// any login Helix does not know. Order of the result follows the input.
func (hc *HelixClient) ResolveUserIDs(ctx context.Context, logins []string) ([]string, error) {
	ids := make([]string, 0, len(logins))
	for _, login := range logins {
		id, err := hc.GetUserID(ctx, login)
		if err != nil {
			slog.Warn("failed to resolve allow-list login", slog.String("login", login), slog.Any("err", err))
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 && len(logins) > 0 {
		return nil, fmt.Errorf("none of %d configured logins resolved", len(logins))
	}
	return ids, nil
}

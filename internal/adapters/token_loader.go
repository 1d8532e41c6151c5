package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DuckDHD/costshare/internal/cache"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewClientCredentialsLoader builds a cache.BearerLoader that exchanges the
// configured client id/secret for a bearer token at tokenURL using the
// OAuth2 client-credentials grant, per spec.md §6.4's token endpoint
// configuration option.
func NewClientCredentialsLoader(tokenURL, clientID, clientSecret string, timeout time.Duration) cache.BearerLoader {
	httpClient := &http.Client{Timeout: timeout}

	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := httpClient.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", 0, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
		}

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return "", 0, err
		}
		if tr.ExpiresIn <= 0 {
			tr.ExpiresIn = int64((59 * time.Minute).Seconds())
		}
		return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
	}
}

package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ms-checkin/internal/models"
)

// HTTPMembershipClient queries the event/user membership service for
// registered-user presence.
type HTTPMembershipClient struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPMembershipClient(baseURL string, client *http.Client) *HTTPMembershipClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPMembershipClient{BaseURL: baseURL, Client: client}
}

func (c *HTTPMembershipClient) Presence(ctx context.Context, eventID string) (*models.Presence, error) {
	endpoint := fmt.Sprintf("%s/internal/v1/events/%s/presence", c.BaseURL, url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach membership service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("membership service returned status %d", resp.StatusCode)
	}

	var presence models.Presence
	if err := json.NewDecoder(resp.Body).Decode(&presence); err != nil {
		return nil, fmt.Errorf("failed to decode presence response: %w", err)
	}
	return &presence, nil
}

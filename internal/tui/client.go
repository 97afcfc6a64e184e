package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the panchanga daemon API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// State fetches the current sync state and selected date
func (c *Client) State() (StateView, error) {
	var view StateView

	resp, err := c.httpClient.Get(c.baseURL + "/panchanga")
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return view, fmt.Errorf("API error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, err
	}
	return view, nil
}

// SelectDate asks the daemon to load a different calendar day
func (c *Client) SelectDate(date string) error {
	_, err := c.send(http.MethodPost, "/panchanga/date", map[string]string{"date": date})
	return err
}

// Preferences fetches the stored reminder preferences
func (c *Client) Preferences() (models.ReminderPreferences, error) {
	var prefs models.ReminderPreferences

	resp, err := c.httpClient.Get(c.baseURL + "/preferences")
	if err != nil {
		return prefs, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return prefs, fmt.Errorf("API error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// UpdatePreferences stores new reminder preferences
func (c *Client) UpdatePreferences(prefs models.ReminderPreferences) error {
	_, err := c.send(http.MethodPut, "/preferences", prefs)
	return err
}

// Reminders fetches the pending scheduled notifications
func (c *Client) Reminders() ([]ReminderItem, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/reminders")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var items []ReminderItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) send(method, path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}

// Package panchanga provides the stateless HTTP client for the remote
// panchanga computation service.
package panchanga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
)

// DefaultBaseURL is the hosted computation service.
const DefaultBaseURL = "https://web-production-818e.up.railway.app"

// requestTimeout bounds both the connect and total-transfer phases.
const requestTimeout = 30 * time.Second

// Kind classifies client failures.
type Kind string

const (
	// KindInvalidRequest means the request could not be built. With valid
	// inputs this should not occur.
	KindInvalidRequest Kind = "invalid_request"
	// KindTransport covers network errors, timeouts and non-2xx responses.
	KindTransport Kind = "transport"
	// KindDecode means the response body did not match the expected schema.
	KindDecode Kind = "decode"
)

// Error is the typed failure returned by Fetch.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("panchanga: %s: %s", e.Kind, e.Message)
}

// AsError unwraps err into a *Error, defaulting unknown errors to the
// transport kind.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: KindTransport, Message: err.Error()}
}

// Client performs single-attempt fetches against the computation service.
// It does not retry, cache, or mutate shared state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. An empty URL selects
// the hosted service.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	dialer := &net.Dialer{Timeout: requestTimeout}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
	}
}

// Fetch requests the panchanga for a calendar day at a location.
func (c *Client) Fetch(ctx context.Context, day models.CalendarDay, loc models.LocationSample) (*models.Panchanga, error) {
	u, err := url.Parse(c.baseURL + "/panchanga")
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: err.Error()}
	}
	q := u.Query()
	q.Set("date", day.String())
	q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return nil, &Error{Kind: KindTransport, Message: apiErr.Error}
		}
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("server returned status code %d", resp.StatusCode)}
	}

	var p models.Panchanga
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &Error{Kind: KindDecode, Message: err.Error()}
	}
	return &p, nil
}

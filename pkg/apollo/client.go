// Package apollo provides a client for the Apollo people-enrichment API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/attendee-enrich/internal/resilience"
)

// Person identifies a person to enrich.
type Person struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization_name,omitempty"`
}

// Employment is one entry in a match's employment history.
type Employment struct {
	OrganizationName string `json:"organization_name"`
	Title            string `json:"title"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	Current          bool   `json:"current"`
}

// PersonMatch is an enrichment result for a single person.
type PersonMatch struct {
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Email             string       `json:"email"`
	EmailStatus       string       `json:"email_status"`
	Phone             string       `json:"phone_number"`
	Headline          string       `json:"headline"`
	OrganizationName  string       `json:"organization_name"`
	LinkedInURL       string       `json:"linkedin_url"`
	EmploymentHistory []Employment `json:"employment_history"`
}

// EnrichResponse is the bulk-match envelope.
type EnrichResponse struct {
	Matches []PersonMatch `json:"matches"`
}

// Client defines the contact-enrichment operation used by the merge pipeline.
type Client interface {
	// Enrich submits a bulk people-match request and returns whatever
	// matches the service found. Result order is not guaranteed to align
	// with the input.
	Enrich(ctx context.Context, people []Person) (*EnrichResponse, error)
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.apollo.io/api/v1",
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Enrich(ctx context.Context, people []Person) (*EnrichResponse, error) {
	if len(people) == 0 {
		return &EnrichResponse{}, nil
	}

	payload, err := json.Marshal(struct {
		Details []Person `json:"details"`
	}{Details: people})
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/people/bulk_match", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read response body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("apollo: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("apollo: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var out EnrichResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal response")
	}
	return &out, nil
}

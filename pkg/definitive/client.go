// Package definitive provides a client for the healthcare-facility directory API.
package definitive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/attendee-enrich/internal/resilience"
	"github.com/sells-group/attendee-enrich/internal/similarity"
)

// Record is a single health-system entry from the directory. Immutable once
// fetched.
type Record struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	Zip                 string `json:"zip"`
	FirmType            string `json:"firm_type"`
	EMRVendorAmbulatory string `json:"emr_vendor_ambulatory"`
	EMRVendorInpatient  string `json:"emr_vendor_inpatient"`
	NetPatientRevenue   int64  `json:"net_patient_revenue"`
	NumBeds             int    `json:"num_beds"`
	NumHospitals        int    `json:"num_hospitals"`
	Website             string `json:"website"`
}

// Client defines the directory operations used by the resolution pipeline.
type Client interface {
	// SearchByNameContains returns records whose name contains term,
	// ordered by name ascending, capped at limit. The term is sanitized
	// before sending.
	SearchByNameContains(ctx context.Context, term string, limit int) ([]Record, error)
	// GetAllPaged returns up to limit records ordered by name ascending.
	GetAllPaged(ctx context.Context, limit int) ([]Record, error)
	// GetByID returns a single record by its directory identity.
	GetByID(ctx context.Context, id int64) (*Record, error)
}

// Option configures the directory client.
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

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a directory client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.defhc.com/v4",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listResponse is the directory list envelope.
type listResponse struct {
	Data  []Record `json:"data"`
	Total int      `json:"total"`
}

func (c *httpClient) SearchByNameContains(ctx context.Context, term string, limit int) ([]Record, error) {
	sanitized := similarity.SanitizeSearchTerm(term)
	if sanitized == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("filter", fmt.Sprintf("substringof(name,'%s')", sanitized))
	q.Set("orderby", "name asc")
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/healthsystems?"+q.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "definitive: search by name")
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "definitive: unmarshal search response")
	}
	return resp.Data, nil
}

func (c *httpClient) GetAllPaged(ctx context.Context, limit int) ([]Record, error) {
	q := url.Values{}
	q.Set("orderby", "name asc")
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/healthsystems?"+q.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "definitive: get all")
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "definitive: unmarshal list response")
	}
	return resp.Data, nil
}

func (c *httpClient) GetByID(ctx context.Context, id int64) (*Record, error) {
	body, err := c.get(ctx, "/healthsystems/"+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, eris.Wrapf(err, "definitive: get %d", id)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, eris.Wrap(err, "definitive: unmarshal record")
	}
	return &rec, nil
}

// get issues a rate-limited GET and maps retryable status codes to
// TransientError so callers can fall back or retry.
func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "definitive: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "definitive: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, eris.Wrap(err, "definitive: read response body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("definitive: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("definitive: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

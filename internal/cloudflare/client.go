package cloudflare

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
)

// DefaultBaseURL is the Cloudflare v4 API endpoint
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client is an HTTP API client for the Cloudflare v4 API
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a new Cloudflare API client
func NewClient(apiToken string) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, apiToken)
}

// NewClientWithBaseURL creates a client against a non-default endpoint,
// primarily for tests
func NewClientWithBaseURL(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope is the standard Cloudflare response wrapper
type envelope[T any] struct {
	Success bool         `json:"success"`
	Errors  []apiMessage `json:"errors"`
	Result  T            `json:"result"`
}

// doRequest performs an HTTP request and decodes the response envelope into result
func doRequest[T any](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var zero T

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return zero, &APIError{Kind: KindNetwork, Err: err}
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, &APIError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: envelopeMessage(env.Errors, respBody),
		}
	}

	if decodeErr != nil {
		return zero, &APIError{Kind: KindMalformed, Err: decodeErr}
	}

	if !env.Success {
		return zero, &APIError{
			Kind:    KindUnexpected,
			Status:  resp.StatusCode,
			Message: envelopeMessage(env.Errors, respBody),
		}
	}

	return env.Result, nil
}

func envelopeMessage(msgs []apiMessage, raw []byte) string {
	if len(msgs) == 0 {
		s := strings.TrimSpace(string(raw))
		if len(s) > 256 {
			s = s[:256]
		}
		return s
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Message)
	}
	return strings.Join(parts, "; ")
}

// ResolveZone resolves the zone responsible for domain by stripping the
// leftmost label and querying by the resulting name. When the provider
// returns more than one zone for the name the first result wins; the
// ordering is provider-defined and not authoritative.
func (c *Client) ResolveZone(ctx context.Context, domain string) (Zone, error) {
	zoneName := RegistrableParent(domain)
	if zoneName == "" {
		return Zone{}, &APIError{Kind: KindNotFound, Message: fmt.Sprintf("no candidate zone for domain %q", domain)}
	}

	query := url.Values{}
	query.Set("name", zoneName)

	type zoneResult struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	zones, err := doRequest[[]zoneResult](ctx, c, http.MethodGet, "/zones?"+query.Encode(), nil)
	if err != nil {
		return Zone{}, err
	}

	if len(zones) == 0 {
		return Zone{}, &APIError{Kind: KindNotFound, Message: fmt.Sprintf("zone %s not found", zoneName)}
	}

	if len(zones) > 1 {
		fmt.Printf("⚠ Warning: %d zones match %s, using first (%s)\n", len(zones), zoneName, zones[0].ID)
	}

	return Zone{ID: zones[0].ID, Name: zones[0].Name}, nil
}

// FindRecord looks up a DNS record by exact name. Zero matches returns
// (nil, nil), not an error.
func (c *Client) FindRecord(ctx context.Context, zoneID, fqdn string) (*Record, error) {
	query := url.Values{}
	query.Set("name", fqdn)

	type recordResult struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Name    string `json:"name"`
		Content string `json:"content"`
		Proxied bool   `json:"proxied"`
	}

	path := fmt.Sprintf("/zones/%s/dns_records?%s", url.PathEscape(zoneID), query.Encode())
	records, err := doRequest[[]recordResult](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	r := records[0]
	return &Record{ID: r.ID, Type: r.Type, Name: r.Name, Content: r.Content, Proxied: r.Proxied}, nil
}

// DeleteRecord deletes a DNS record by id. Deleting an already-absent record
// is success, so cleanup is safe to run twice.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
	_, err := doRequest[json.RawMessage](ctx, c, http.MethodDelete, path, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// VerifyToken checks that the configured API token is valid
func (c *Client) VerifyToken(ctx context.Context) error {
	type verifyResult struct {
		Status string `json:"status"`
	}

	result, err := doRequest[verifyResult](ctx, c, http.MethodGet, "/user/tokens/verify", nil)
	if err != nil {
		return err
	}

	if result.Status != "active" {
		return &APIError{Kind: KindUnauthorized, Message: fmt.Sprintf("token status is %q", result.Status)}
	}

	return nil
}

// RegistrableParent strips the leftmost label from domain to get the
// candidate zone name. Returns "" when there is nothing left to strip.
func RegistrableParent(domain string) string {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	i := strings.Index(domain, ".")
	if i < 0 || i == len(domain)-1 {
		return ""
	}
	parent := domain[i+1:]
	if !strings.Contains(parent, ".") {
		// A bare TLD is never a registrable zone
		return ""
	}
	return parent
}

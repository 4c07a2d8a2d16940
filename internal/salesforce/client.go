package salesforce

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

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// DefaultAPIVersion is used when a connection doesn't pin one.
const DefaultAPIVersion = "59.0"

// Client is an authenticated REST/Tooling client for a single org session.
type Client struct {
	instanceURL string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection) *Client {
	return NewClientWithTimeout(conn, 60*time.Second)
}

// NewClientWithTimeout creates a Client with an explicit overall HTTP timeout.
// No per-call retry or backoff: a failed call surfaces as that call's error.
func NewClientWithTimeout(conn *models.Connection, timeout time.Duration) *Client {
	version := conn.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return &Client{
		instanceURL: conn.BaseURL(),
		accessToken: conn.AccessToken,
		apiVersion:  version,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// APIVersion returns the API version this client addresses.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// dataPath returns the versioned REST base path, e.g. "/services/data/v59.0".
func (c *Client) dataPath() string {
	return "/services/data/v" + c.apiVersion
}

// do performs one authenticated request. Paths are absolute (start with "/").
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, int, error) {
	u := c.instanceURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, mapError(resp.StatusCode, body, ""))
	}
	return body, resp.StatusCode, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, _, err := c.do(ctx, http.MethodGet, path, params, nil)
	return body, err
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// Patch performs an authenticated PATCH request.
func (c *Client) Patch(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	return c.do(ctx, http.MethodPatch, path, nil, payload)
}

// Delete performs an authenticated DELETE request. 404 is treated as success.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, status, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && status == http.StatusNotFound {
		return nil // already gone
	}
	return err
}

// QueryResult is the standard Salesforce query response envelope.
type QueryResult struct {
	TotalSize      int             `json:"totalSize"`
	Done           bool            `json:"done"`
	NextRecordsURL string          `json:"nextRecordsUrl"`
	Records        []models.Record `json:"records"`
}

// Query runs a SOQL query and returns the first page of results.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	return c.queryAt(ctx, c.dataPath()+"/query", soql)
}

// ToolingQuery runs a SOQL query against the Tooling API.
func (c *Client) ToolingQuery(ctx context.Context, soql string) (*QueryResult, error) {
	return c.queryAt(ctx, c.dataPath()+"/tooling/query", soql)
}

func (c *Client) queryAt(ctx context.Context, path, soql string) (*QueryResult, error) {
	params := url.Values{"q": {soql}}
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	var result QueryResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing query response: %w", err)
	}
	return &result, nil
}

// QueryAll runs a SOQL query and follows nextRecordsUrl until all pages
// have been fetched, returning every record.
func (c *Client) QueryAll(ctx context.Context, soql string) ([]models.Record, error) {
	result, err := c.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	all := result.Records
	for !result.Done && result.NextRecordsURL != "" {
		body, err := c.Get(ctx, result.NextRecordsURL, nil)
		if err != nil {
			return nil, err
		}
		var page QueryResult
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing query response: %w", err)
		}
		all = append(all, page.Records...)
		result = &page
	}
	return all, nil
}

// Count runs a COUNT() SOQL query and returns the total size.
func (c *Client) Count(ctx context.Context, soql string) (int, error) {
	result, err := c.Query(ctx, soql)
	if err != nil {
		return 0, err
	}
	return result.TotalSize, nil
}

// Ping checks connectivity by listing API versions (unauthenticated endpoint).
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instanceURL+"/services/data/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET /services/data/: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET /services/data/: HTTP %d", resp.StatusCode)
	}
	return nil
}

// EscapeSOQL escapes a string value for embedding in single quotes in SOQL.
func EscapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// QuotedIDList renders IDs as a SOQL IN-clause list: 'a','b','c'.
func QuotedIDList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + EscapeSOQL(id) + "'"
	}
	return strings.Join(quoted, ",")
}

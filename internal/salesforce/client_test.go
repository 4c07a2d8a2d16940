package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

func newTestClient(ts *httptest.Server) *Client {
	return NewClientWithTimeout(&models.Connection{
		InstanceURL: ts.URL,
		AccessToken: "sesame",
		APIVersion:  "59.0",
	}, 5*time.Second)
}

func TestClient_Get_BearerHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sesame" {
			t.Errorf("Authorization = %q, want Bearer sesame", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if _, err := c.Get(context.Background(), "/services/data/v59.0/limits", nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
}

func TestClient_Query_SendsSOQL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v59.0/query" {
			t.Errorf("path = %s, want /services/data/v59.0/query", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "SELECT Id FROM Account" {
			t.Errorf("q = %q, want SELECT Id FROM Account", got)
		}
		w.Write([]byte(`{"totalSize":1,"done":true,"records":[{"Id":"001000000000001AAA"}]}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	result, err := c.Query(context.Background(), "SELECT Id FROM Account")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.TotalSize != 1 || len(result.Records) != 1 {
		t.Fatalf("result = %+v, want one record", result)
	}
	if result.Records[0].ID() != "001000000000001AAA" {
		t.Errorf("record ID = %q, want 001000000000001AAA", result.Records[0].ID())
	}
}

func TestClient_QueryAll_Pagination(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/data/v59.0/query":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"totalSize":      3,
				"done":           false,
				"nextRecordsUrl": "/services/data/v59.0/query/01g000-2000",
				"records":        []map[string]interface{}{{"Id": "a1"}},
			})
		case "/services/data/v59.0/query/01g000-2000":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"totalSize": 3,
				"done":      true,
				"records":   []map[string]interface{}{{"Id": "a2"}, {"Id": "a3"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts)
	records, err := c.QueryAll(context.Background(), "SELECT Id FROM Contact")
	if err != nil {
		t.Fatalf("QueryAll returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("QueryAll returned %d records, want 3", len(records))
	}
	if records[2].ID() != "a3" {
		t.Errorf("records[2].Id = %q, want a3", records[2].ID())
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "401 maps to AuthError",
			status: http.StatusUnauthorized,
			body:   `[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`,
			check: func(err error) bool {
				var e *AuthError
				return errors.As(err, &e)
			},
		},
		{
			name:   "403 maps to PermissionError",
			status: http.StatusForbidden,
			body:   `[{"message":"insufficient access","errorCode":"INSUFFICIENT_ACCESS"}]`,
			check: func(err error) bool {
				var e *PermissionError
				return errors.As(err, &e)
			},
		},
		{
			name:   "404 maps to NotFoundError",
			status: http.StatusNotFound,
			body:   `[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`,
			check: func(err error) bool {
				var e *NotFoundError
				return errors.As(err, &e)
			},
		},
		{
			name:   "500 maps to APIError with errorCode",
			status: http.StatusInternalServerError,
			body:   `[{"message":"boom","errorCode":"UNKNOWN_EXCEPTION"}]`,
			check: func(err error) bool {
				var e *APIError
				return errors.As(err, &e) && e.ErrorCode == "UNKNOWN_EXCEPTION" && e.Message == "boom"
			},
		},
		{
			name:   "non-JSON body falls back to raw text",
			status: http.StatusBadGateway,
			body:   "upstream unavailable",
			check: func(err error) bool {
				var e *APIError
				return errors.As(err, &e) && e.Message == "upstream unavailable"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := newTestClient(ts)
			_, err := c.Get(context.Background(), "/services/data/v59.0/query", nil)
			if err == nil {
				t.Fatalf("Get should return error for %d", tt.status)
			}
			if !tt.check(err) {
				t.Errorf("error %v has wrong type or content", err)
			}
		})
	}
}

func TestClient_Delete_NotFoundIsSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"message":"gone","errorCode":"NOT_FOUND"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if err := c.Delete(context.Background(), "/services/data/v59.0/sobjects/Account/x"); err != nil {
		t.Errorf("Delete of missing resource should succeed, got %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/" {
			t.Errorf("path = %s, want /services/data/", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Ping should not send an Authorization header")
		}
		w.Write([]byte(`[{"label":"Winter '24","version":"59.0"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestEscapeSOQL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme", "Acme"},
		{"O'Brien", `O\'Brien`},
		{`back\slash`, `back\\slash`},
		{`both\'`, `both\\\'`},
	}
	for _, tt := range tests {
		if got := EscapeSOQL(tt.in); got != tt.want {
			t.Errorf("EscapeSOQL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuotedIDList(t *testing.T) {
	got := QuotedIDList([]string{"a1", "a2", "a3"})
	if got != "'a1','a2','a3'" {
		t.Errorf("QuotedIDList = %q, want 'a1','a2','a3'", got)
	}
}

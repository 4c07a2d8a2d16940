package salesforce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

func TestResolveSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/oauth2/userinfo" {
			t.Errorf("path = %s, want /services/oauth2/userinfo", r.URL.Path)
		}
		w.Write([]byte(`{
			"user_id": "005000000000001",
			"organization_id": "00D000000000001",
			"preferred_username": "admin@acme.example"
		}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	sess, err := c.ResolveSession(context.Background())
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	// 15-char IDs are normalized to their 18-char form.
	if sess.OrgID != "00D000000000001EAA" {
		t.Errorf("OrgID = %q, want 00D000000000001EAA", sess.OrgID)
	}
	if sess.UserID != To18("005000000000001") {
		t.Errorf("UserID = %q, want 18-char form", sess.UserID)
	}
	if sess.Username != "admin@acme.example" {
		t.Errorf("Username = %q, want admin@acme.example", sess.Username)
	}
}

func TestResolveSession_ExpiredToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.ResolveSession(context.Background())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("ResolveSession error = %v, want *AuthError", err)
	}
}

func TestListOrgs_DeduplicatesByOrg(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"user_id": "005000000000001",
			"organization_id": "00D000000000001",
			"preferred_username": "admin@acme.example"
		}`))
	}))
	defer ts.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`[]`))
	}))
	defer dead.Close()

	conns := []*models.Connection{
		{ID: "c1", InstanceURL: ts.URL, AccessToken: "t1"},
		{ID: "c2", InstanceURL: ts.URL, AccessToken: "t2"},
		{ID: "c3", InstanceURL: dead.URL, AccessToken: "t3"},
	}

	orgs := ListOrgs(context.Background(), conns)
	if len(orgs) != 1 {
		t.Fatalf("ListOrgs returned %d orgs, want 1", len(orgs))
	}
	if len(orgs[0].ConnectionIDs) != 2 {
		t.Errorf("ConnectionIDs = %v, want [c1 c2]", orgs[0].ConnectionIDs)
	}
}

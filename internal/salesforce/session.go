package salesforce

import (
	"context"
	"fmt"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// Session holds the resolved identity of an authenticated org connection.
type Session struct {
	InstanceURL string `json:"instance_url"`
	OrgID       string `json:"org_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

// userInfo is the /services/oauth2/userinfo response (relevant fields only).
type userInfo struct {
	UserID            string `json:"user_id"`
	OrganizationID    string `json:"organization_id"`
	PreferredUsername string `json:"preferred_username"`
}

// ResolveSession verifies the client's token and returns the session identity.
// An expired or missing token surfaces as *AuthError; there is no retry.
func (c *Client) ResolveSession(ctx context.Context) (*Session, error) {
	var info userInfo
	if err := c.GetJSON(ctx, "/services/oauth2/userinfo", nil, &info); err != nil {
		return nil, err
	}
	if info.OrganizationID == "" {
		return nil, fmt.Errorf("userinfo response missing organization_id")
	}
	return &Session{
		InstanceURL: c.instanceURL,
		OrgID:       To18(info.OrganizationID),
		UserID:      To18(info.UserID),
		Username:    info.PreferredUsername,
	}, nil
}

// Org describes one distinct authenticated org across all connections.
type Org struct {
	OrgID         string   `json:"org_id"`
	InstanceURL   string   `json:"instance_url"`
	Username      string   `json:"username"`
	ConnectionIDs []string `json:"connection_ids"`
}

// ListOrgs resolves sessions for all connections and returns the distinct
// authenticated orgs, deduplicated by org ID. Connections whose session
// cannot be resolved are skipped; resolution is best-effort per connection.
func ListOrgs(ctx context.Context, conns []*models.Connection) []Org {
	byOrg := make(map[string]*Org)
	var order []string
	for _, conn := range conns {
		client := NewClient(conn)
		sess, err := client.ResolveSession(ctx)
		if err != nil {
			continue
		}
		if existing, ok := byOrg[sess.OrgID]; ok {
			existing.ConnectionIDs = append(existing.ConnectionIDs, conn.ID)
			continue
		}
		byOrg[sess.OrgID] = &Org{
			OrgID:         sess.OrgID,
			InstanceURL:   sess.InstanceURL,
			Username:      sess.Username,
			ConnectionIDs: []string{conn.ID},
		}
		order = append(order, sess.OrgID)
	}
	result := make([]Org, 0, len(order))
	for _, id := range order {
		result = append(result, *byOrg[id])
	}
	return result
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/rflorenc/salesforce-org-workbench/internal/api"
	"github.com/rflorenc/salesforce-org-workbench/internal/config"
	"github.com/rflorenc/salesforce-org-workbench/internal/history"
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("workbench %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()

	hist, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open history database: ", err)
	}
	defer hist.Close()

	server := &api.Server{
		Connections: models.NewConnectionStore(),
		Jobs:        models.NewJobStore(),
		Previews:    api.NewPreviewStore(),
		Results:     api.NewResultStore(),
		History:     hist,
	}

	// Load pre-configured connections from config file
	for _, cc := range cfg.Connections {
		conn := &models.Connection{
			Name:        cc.Name,
			Role:        cc.Role,
			InstanceURL: cc.InstanceURL,
			AccessToken: cc.AccessToken,
			APIVersion:  cc.APIVersion,
		}
		if conn.Role == "" {
			conn.Role = "source"
		}
		if conn.APIVersion == "" {
			conn.APIVersion = cfg.APIVersion
		}
		server.Connections.Create(conn)
		fmt.Printf("Loaded connection: %s (%s)\n", conn.Name, conn.BaseURL())

		// Verify connectivity and session early
		checkConnection(server.Connections, conn, cfg.HTTPTimeout)
	}

	handler := api.NewRouter(server)

	fmt.Printf("Salesforce Org Workbench %s starting on %s\n", version, cfg.Listen)
	fmt.Printf("Open http://localhost%s in your browser\n", cfg.Listen)

	if err := http.ListenAndServe(cfg.Listen, handler); err != nil {
		log.Fatal(err)
	}
}

// checkConnection pings the org, resolves the session identity and discovers
// the served API versions. Failures are logged and recorded on the
// connection; startup continues regardless.
func checkConnection(store *models.ConnectionStore, conn *models.Connection, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := salesforce.NewClientWithTimeout(conn, timeout)

	pingStatus, pingError := "ok", ""
	if err := client.Ping(ctx); err != nil {
		pingStatus = "error"
		pingError = err.Error()
		fmt.Printf("  PING FAILED: %s: %v\n", conn.Name, err)
	} else {
		fmt.Printf("  PING OK: %s: reachable\n", conn.Name)
	}

	authStatus, authError := "unknown", ""
	if pingStatus == "ok" {
		if conn.AccessToken == "" {
			authStatus = "error"
			authError = "no access token configured"
			fmt.Printf("  AUTH FAILED: %s: %s\n", conn.Name, authError)
		} else if session, err := client.ResolveSession(ctx); err != nil {
			authStatus = "error"
			authError = err.Error()
			fmt.Printf("  AUTH FAILED: %s: %v\n", conn.Name, err)
		} else {
			authStatus = "ok"
			store.SetIdentity(conn.ID, session.OrgID, session.UserID, session.Username)
			fmt.Printf("  AUTH OK: %s: %s in org %s\n", conn.Name, session.Username, session.OrgID)

			// Discovery: pick a served API version (only after auth succeeds)
			if versions, err := client.Versions(ctx); err == nil && len(versions) > 0 {
				picked := salesforce.PickVersion(versions, conn.APIVersion)
				store.SetAPIVersion(conn.ID, picked)
				fmt.Printf("  VERSION: %s: v%s\n", conn.Name, picked)
			}
		}
	}
	store.SetHealth(conn.ID, pingStatus, pingError, authStatus, authError)
}

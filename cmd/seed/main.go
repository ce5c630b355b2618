// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev team already exists.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/google/uuid"

	"analytics-pipeline/ingestcore/internal/config"
	"analytics-pipeline/ingestcore/internal/db"
)

const devTeamName = "Dev Team"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var existingID int64
	err = conn.QueryRowContext(ctx, `SELECT id FROM teams WHERE name = $1`, devTeamName).Scan(&existingID)
	if err == nil {
		log.Printf("Seed already applied (team %q exists). Skipping.", devTeamName)
		os.Exit(0)
	}
	if err != sql.ErrNoRows {
		log.Fatalf("seed check: %v", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	var teamID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO teams (name, plugins_opt_in) VALUES ($1, TRUE) RETURNING id`,
		devTeamName).Scan(&teamID); err != nil {
		log.Fatalf("create team: %v", err)
	}

	var pluginID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO plugins (name, description, plugin_type, url, tag, config_schema, capabilities, metrics, organization_id, is_global, is_preinstalled)
		VALUES ($1, $2, 'custom', $3, $4, $5, $6, '{}', $7, FALSE, FALSE)
		RETURNING id`,
		"geoip-enricher",
		"Adds GeoIP fields to incoming events",
		"https://github.com/example/geoip-enricher",
		"v1.2.0",
		`[{"key":"database_key","name":"GeoIP database","type":"attachment","required":true}]`,
		`["processEvent"]`,
		uuid.New(),
	).Scan(&pluginID); err != nil {
		log.Fatalf("create plugin: %v", err)
	}

	var configID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO plugin_configs (plugin_id, team_id, enabled, "order", config)
		VALUES ($1, $2, TRUE, 0, $3)
		RETURNING id`,
		pluginID, teamID, `{"lookup_fields":"ip"}`,
	).Scan(&configID); err != nil {
		log.Fatalf("create plugin config: %v", err)
	}

	contents := []byte("dev geoip database placeholder")
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO plugin_attachments (plugin_config_id, team_id, key, file_name, file_size, content_type, contents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		configID, teamID, "database_key", "geoip.mmdb", len(contents), "application/octet-stream", contents,
	); err != nil {
		log.Fatalf("create attachment: %v", err)
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}

	log.Printf("Seed complete: team %d, plugin %d, config %d", teamID, pluginID, configID)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"analytics-pipeline/ingestcore/internal/plugin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a plugin repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListPlugins returns all installed plugins.
func (r *PostgresRepository) ListPlugins(ctx context.Context) ([]*domain.Plugin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, plugin_type, url, tag, archive, source,
		       config_schema, capabilities, metrics, organization_id,
		       is_global, is_preinstalled, created_at, updated_at
		FROM plugins
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Plugin
	for rows.Next() {
		var (
			p            domain.Plugin
			source       sql.NullString
			configSchema []byte
			capabilities []byte
			metrics      []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PluginType, &p.URL, &p.Tag,
			&p.Archive, &source, &configSchema, &capabilities, &metrics,
			&p.OrganizationID, &p.IsGlobal, &p.IsPreinstalled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if source.Valid {
			p.Source = &source.String
		}
		if err := json.Unmarshal(configSchema, &p.ConfigSchema); err != nil {
			return nil, fmt.Errorf("plugin %d: decode config_schema: %w", p.ID, err)
		}
		if err := json.Unmarshal(capabilities, &p.Capabilities); err != nil {
			return nil, fmt.Errorf("plugin %d: decode capabilities: %w", p.ID, err)
		}
		if err := json.Unmarshal(metrics, &p.Metrics); err != nil {
			return nil, fmt.Errorf("plugin %d: decode metrics: %w", p.ID, err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ListPluginConfigs returns enabled configs for teams that have ingestion
// opted in, ordered for stable iteration.
func (r *PostgresRepository) ListPluginConfigs(ctx context.Context) ([]*domain.PluginConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.plugin_id, c.team_id, c.enabled, c."order", c.config, c.error, c.created_at, c.updated_at
		FROM plugin_configs c
		JOIN teams t ON c.team_id = t.id
		WHERE t.plugins_opt_in AND c.enabled
		ORDER BY c.team_id ASC, c."order" ASC, c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PluginConfig
	for rows.Next() {
		var (
			c        domain.PluginConfig
			config   []byte
			errField []byte
		)
		if err := rows.Scan(&c.ID, &c.PluginID, &c.TeamID, &c.Enabled, &c.Order, &config, &errField, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(config, &c.Config); err != nil {
			return nil, fmt.Errorf("plugin config %d: decode config: %w", c.ID, err)
		}
		if len(errField) > 0 {
			var pe domain.PluginError
			if err := json.Unmarshal(errField, &pe); err != nil {
				return nil, fmt.Errorf("plugin config %d: decode error: %w", c.ID, err)
			}
			c.Error = &pe
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListAttachments returns attachments for active-team configs.
func (r *PostgresRepository) ListAttachments(ctx context.Context) ([]*domain.PluginAttachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.plugin_config_id, a.team_id, a.key, a.file_name, a.file_size, a.content_type, a.contents
		FROM plugin_attachments a
		JOIN teams t ON a.team_id = t.id
		WHERE t.plugins_opt_in
		ORDER BY a.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PluginAttachment
	for rows.Next() {
		var a domain.PluginAttachment
		if err := rows.Scan(&a.ID, &a.PluginConfigID, &a.TeamID, &a.Key, &a.FileName, &a.FileSize, &a.ContentType, &a.Contents); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// SetError overwrites the error column only; nil clears it. No other column
// (updated_at included) is touched.
func (r *PostgresRepository) SetError(ctx context.Context, pluginConfigID int64, pluginErr *domain.PluginError) error {
	var val any
	if pluginErr != nil {
		b, err := json.Marshal(pluginErr)
		if err != nil {
			return fmt.Errorf("encode plugin error: %w", err)
		}
		val = b
	}
	_, err := r.db.ExecContext(ctx, `UPDATE plugin_configs SET error = $1 WHERE id = $2`, val, pluginConfigID)
	return err
}

// Disable flips enabled off, conditional on the row being enabled, so the
// operation is idempotent for callers.
func (r *PostgresRepository) Disable(ctx context.Context, pluginConfigID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE plugin_configs SET enabled = FALSE WHERE id = $1 AND enabled = TRUE`, pluginConfigID)
	return err
}

// RecordMetrics merges the delta into the referenced plugin's metrics map.
// jsonb || gives exactly the required semantics: per-key overwrite, other
// keys preserved, never summed.
func (r *PostgresRepository) RecordMetrics(ctx context.Context, pluginConfigID int64, delta map[string]string) error {
	if len(delta) == 0 {
		return nil
	}
	b, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("encode metrics delta: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE plugins SET metrics = metrics || $1::jsonb
		WHERE id = (SELECT plugin_id FROM plugin_configs WHERE id = $2)`,
		b, pluginConfigID)
	return err
}

package repository

import (
	"context"

	"analytics-pipeline/ingestcore/internal/plugin/domain"
)

// Repository defines persistence for plugins, configs, and attachments.
// All operations surface durable-store failures unmodified; retry policy
// belongs to the caller.
type Repository interface {
	// ListPlugins returns all installed plugins including archive blob,
	// config schema, capability set, and accumulated metrics map.
	ListPlugins(ctx context.Context) ([]*domain.Plugin, error)
	// ListPluginConfigs returns enabled configs for teams with ingestion
	// opted in. Disabled configs and opted-out teams are excluded from this
	// view but their rows are retained.
	ListPluginConfigs(ctx context.Context) ([]*domain.PluginConfig, error)
	// ListAttachments returns attachment rows for active-team configs,
	// binary contents included verbatim.
	ListAttachments(ctx context.Context) ([]*domain.PluginAttachment, error)
	// SetError overwrites the config's error column; nil clears it. The
	// update touches only the error column.
	SetError(ctx context.Context, pluginConfigID int64, pluginErr *domain.PluginError) error
	// Disable sets enabled=false only if the row is currently enabled.
	// Disabling an already-disabled config is a no-op, not an error.
	Disable(ctx context.Context, pluginConfigID int64) error
	// RecordMetrics merges the delta into the metrics map of the plugin the
	// config references: new keys are added, existing keys overwritten
	// (last-write-wins per key, never summed).
	RecordMetrics(ctx context.Context, pluginConfigID int64, delta map[string]string) error
}

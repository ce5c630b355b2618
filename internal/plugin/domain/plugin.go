// Package domain holds the plugin metadata types: installed plugins, their
// per-team configuration instances, binary attachments, and run-time error
// state recorded by the ingestion pipeline.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PluginType describes where a plugin's code comes from.
type PluginType string

const (
	PluginTypeCustom PluginType = "custom"
	PluginTypeLocal  PluginType = "local"
	PluginTypeSource PluginType = "source"
)

// ConfigSchemaField is one field spec in a plugin's ordered config schema.
type ConfigSchemaField struct {
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Default  string `json:"default,omitempty"`
	Order    int    `json:"order,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Plugin is an installed plugin owned by an organization. Identity (ID) is
// immutable; everything else changes via explicit updates.
type Plugin struct {
	ID             int64
	Name           string
	Description    string
	PluginType     PluginType
	URL            string
	Tag            string
	Archive        []byte
	Source         *string
	ConfigSchema   []ConfigSchemaField
	Capabilities   []string
	Metrics        map[string]string
	OrganizationID uuid.UUID
	IsGlobal       bool
	IsPreinstalled bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PluginError is the last failure recorded for a config by the pipeline;
// nil means the last run succeeded (or none ran yet).
type PluginError struct {
	Message string `json:"message"`
	Time    string `json:"time"`
}

// PluginConfig binds a plugin to a team. Order defines execution sequence
// among a team's enabled configs; ties break by ID ascending.
type PluginConfig struct {
	ID          int64
	PluginID    int64
	TeamID      int64
	Enabled     bool
	Order       int
	Config      map[string]any
	Attachments []PluginAttachment
	Error       *PluginError
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PluginAttachment is a binary config blob owned by one PluginConfig and
// deleted with it (cascade).
type PluginAttachment struct {
	ID             int64
	PluginConfigID int64
	TeamID         int64
	Key            string
	FileName       string
	FileSize       int
	ContentType    string
	Contents       []byte
}

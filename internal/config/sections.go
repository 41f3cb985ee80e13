package config

import "time"

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is the minimum level written ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// Prefix is prepended to all log lines.
	Prefix string `toml:"prefix"`
}

// EditorConfig configures the engine.
type EditorConfig struct {
	// Editable controls whether the document accepts changes.
	Editable bool `toml:"editable"`

	// HistorySize is the maximum number of undo entries.
	HistorySize int `toml:"history_size"`
}

// GuardsConfig configures the document guards.
type GuardsConfig struct {
	Leading   LeadingGuardConfig   `toml:"leading"`
	UniqueID  UniqueIDGuardConfig  `toml:"unique_id"`
	Highlight HighlightGuardConfig `toml:"highlight"`
}

// LeadingGuardConfig configures the protected leading node.
type LeadingGuardConfig struct {
	// Enabled installs the guard.
	Enabled bool `toml:"enabled"`

	// Node is the required type of the first node ("heading" or "title").
	Node string `toml:"node"`

	// Level is the required heading level when Node is "heading".
	Level int `toml:"level"`
}

// UniqueIDGuardConfig configures id assignment.
type UniqueIDGuardConfig struct {
	// Enabled installs the guard.
	Enabled bool `toml:"enabled"`

	// Types lists the node types that carry ids.
	Types []string `toml:"types"`
}

// HighlightGuardConfig configures the persistent highlight.
type HighlightGuardConfig struct {
	// Enabled installs the guard.
	Enabled bool `toml:"enabled"`

	// RemapOnChange keeps the highlight across document changes by mapping
	// it, instead of clearing it.
	RemapOnChange bool `toml:"remap_on_change"`

	// Class is the CSS class of highlight decorations.
	Class string `toml:"class"`
}

// PlaceholderConfig configures placeholder decorations.
type PlaceholderConfig struct {
	// Text is shown in empty nodes.
	Text string `toml:"text"`

	// EmptyNodeClass is the class of every empty-node decoration.
	EmptyNodeClass string `toml:"empty_node_class"`

	// EmptyEditorClass is added for the first node of the document.
	EmptyEditorClass string `toml:"empty_editor_class"`

	// ShowOnlyWhenEditable hides placeholders in read-only mode.
	ShowOnlyWhenEditable bool `toml:"show_only_when_editable"`
}

// ExtractConfig configures selection extraction.
type ExtractConfig struct {
	// Generator names the built-in generator ("echo", "mirror", "upper").
	Generator string `toml:"generator"`

	// Tagging marks the selection while a request is pending.
	Tagging bool `toml:"tagging"`

	// Timeout bounds a generation round trip, e.g. "5s". Empty means none.
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout parsed. Invalid or empty values yield 0.
func (c ExtractConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// PluginsConfig configures script plugins.
type PluginsConfig struct {
	// Scripts run in the pipeline after the guards, in order.
	Scripts []ScriptConfig `toml:"scripts"`
}

// ScriptConfig describes one script plugin.
type ScriptConfig struct {
	// Name is the plugin key.
	Name string `toml:"name"`

	// Path is the script file. Relative paths resolve against the
	// directory of the config file.
	Path string `toml:"path"`

	// Code is inline script source, used when Path is empty.
	Code string `toml:"code"`

	// Timeout bounds each script call, e.g. "200ms".
	Timeout string `toml:"timeout"`

	// Disabled skips the script.
	Disabled bool `toml:"disabled"`
}

// TimeoutDuration returns Timeout parsed. Invalid or empty values yield 0.
func (c ScriptConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

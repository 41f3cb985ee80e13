package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/scribe/internal/config/loader"
	"github.com/dshills/scribe/internal/config/watcher"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/extract"
)

// Config holds the complete Scribe configuration.
type Config struct {
	Logging     LoggingConfig     `toml:"logging"`
	Editor      EditorConfig      `toml:"editor"`
	Guards      GuardsConfig      `toml:"guards"`
	Placeholder PlaceholderConfig `toml:"placeholder"`
	Extract     ExtractConfig     `toml:"extract"`
	Plugins     PluginsConfig     `toml:"plugins"`

	// Path is the config file the configuration was loaded from, if any.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Prefix: "scribe",
		},
		Editor: EditorConfig{
			Editable:    true,
			HistorySize: 1000,
		},
		Guards: GuardsConfig{
			Leading: LeadingGuardConfig{
				Enabled: true,
				Node:    "heading",
				Level:   1,
			},
			UniqueID: UniqueIDGuardConfig{
				Enabled: true,
				Types:   []string{"heading"},
			},
			Highlight: HighlightGuardConfig{
				Enabled: true,
				Class:   "persistent-highlight",
			},
		},
		Placeholder: PlaceholderConfig{
			Text:                 "Type something...",
			EmptyNodeClass:       "is-empty",
			EmptyEditorClass:     "is-editor-empty",
			ShowOnlyWhenEditable: true,
		},
		Extract: ExtractConfig{
			Generator: "echo",
			Tagging:   true,
		},
	}
}

// ============================================================================
// Loading
// ============================================================================

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is the TOML config file. Empty means none.
	File string

	// RequireFile fails loading when File does not exist.
	RequireFile bool

	// EnvPrefix enables environment variables with this prefix.
	// Empty disables them.
	EnvPrefix string

	// Overrides are applied last, by dotted path.
	Overrides map[string]any

	// FS reads the config file. Defaults to the OS file system.
	FS loader.FileSystem
}

// LoadOption configures loading.
type LoadOption func(*LoadOptions)

// WithFile loads the given TOML file. A missing file is not an error.
func WithFile(path string) LoadOption {
	return func(o *LoadOptions) {
		o.File = path
	}
}

// WithRequiredFile loads the given TOML file and fails if it is missing.
func WithRequiredFile(path string) LoadOption {
	return func(o *LoadOptions) {
		o.File = path
		o.RequireFile = true
	}
}

// WithEnv enables SCRIBE_ environment variables.
func WithEnv() LoadOption {
	return func(o *LoadOptions) {
		o.EnvPrefix = loader.DefaultPrefix
	}
}

// WithOverride sets a value by dotted path, e.g. "logging.level".
func WithOverride(path string, value any) LoadOption {
	return func(o *LoadOptions) {
		if o.Overrides == nil {
			o.Overrides = make(map[string]any)
		}
		o.Overrides[path] = value
	}
}

// WithFS reads config files from fsys.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *LoadOptions) {
		o.FS = fsys
	}
}

// NewLoadOptions applies opts.
func NewLoadOptions(opts ...LoadOption) LoadOptions {
	var o LoadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.FS == nil {
		o.FS = loader.DefaultFS()
	}
	return o
}

// Load builds a configuration from defaults, the config file, the
// environment and overrides, in that order, and validates it.
func Load(opts ...LoadOption) (*Config, error) {
	return LoadWith(NewLoadOptions(opts...))
}

// LoadWith is Load with prepared options.
func LoadWith(o LoadOptions) (*Config, error) {
	if o.FS == nil {
		o.FS = loader.DefaultFS()
	}
	cfg := Default()
	var sources []loader.Loader

	if o.File != "" {
		if _, err := o.FS.Stat(o.File); err == nil {
			cfg.Path = o.File
		} else if o.RequireFile {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, o.File)
		}
		sources = append(sources, loader.NewTOMLLoaderWithFS(o.FS, o.File))
	}
	if o.EnvPrefix != "" {
		sources = append(sources, loader.NewEnvLoader(o.EnvPrefix))
	}

	merged, err := loader.LoadAll(sources...)
	if err != nil {
		return nil, err
	}

	for path, value := range o.Overrides {
		loader.SetByPath(merged, path, value)
	}

	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies the settings in data on top of cfg. Unknown keys and
// mistyped values are validation errors.
func decode(data map[string]any, cfg *Config) error {
	if len(data) == 0 {
		return nil
	}
	raw, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding merged config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return &ValidationError{
				Path:    "config",
				Message: "unknown setting",
				Value:   strict.String(),
				Code:    ErrCodeUnknownSetting,
			}
		}
		return &ValidationError{
			Path:    "config",
			Message: err.Error(),
			Code:    ErrCodeTypeMismatch,
		}
	}
	return nil
}

// ============================================================================
// Validation
// ============================================================================

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("logging.level", "must be debug, info, warn or error", c.Logging.Level, ErrCodeInvalidEnum)
	}

	if c.Editor.HistorySize < 1 {
		fail("editor.history_size", "must be at least 1", c.Editor.HistorySize, ErrCodeOutOfRange)
	}

	switch c.Guards.Leading.Node {
	case "heading":
		if l := c.Guards.Leading.Level; l < 1 || l > 6 {
			fail("guards.leading.level", "must be 1-6", l, ErrCodeOutOfRange)
		}
	case "title":
	default:
		fail("guards.leading.node", "must be heading or title", c.Guards.Leading.Node, ErrCodeInvalidEnum)
	}

	for _, name := range c.Guards.UniqueID.Types {
		if _, ok := model.ParseNodeType(name); !ok {
			fail("guards.unique_id.types", "unknown node type", name, ErrCodeInvalidEnum)
		}
	}

	if _, err := extract.GeneratorByName(c.Extract.Generator); err != nil {
		fail("extract.generator", "unknown generator", c.Extract.Generator, ErrCodeInvalidEnum)
	}
	if !validDuration(c.Extract.Timeout) {
		fail("extract.timeout", "not a duration", c.Extract.Timeout, ErrCodeTypeMismatch)
	}

	seen := make(map[string]bool)
	for i, s := range c.Plugins.Scripts {
		path := fmt.Sprintf("plugins.scripts[%d]", i)
		switch {
		case s.Name == "":
			fail(path+".name", "is required", s.Name, ErrCodeRequiredMissing)
		case seen[s.Name]:
			fail(path+".name", "is not unique", s.Name, ErrCodeInvalidEnum)
		}
		seen[s.Name] = true
		if (s.Path == "") == (s.Code == "") {
			fail(path, "needs exactly one of path or code", s.Name, ErrCodeRequiredMissing)
		}
		if !validDuration(s.Timeout) {
			fail(path+".timeout", "not a duration", s.Timeout, ErrCodeTypeMismatch)
		}
	}

	return errors.Join(errs...)
}

func validDuration(s string) bool {
	if s == "" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && d >= 0
}

// ScriptPath resolves a script path against the config file's directory.
func (c *Config) ScriptPath(s ScriptConfig) string {
	if s.Path == "" || filepath.IsAbs(s.Path) || c.Path == "" {
		return s.Path
	}
	return filepath.Join(filepath.Dir(c.Path), s.Path)
}

// ============================================================================
// Live Reload
// ============================================================================

// ReloadFunc receives the reloaded configuration, or the error that
// prevented reloading.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads the configuration with o whenever o.File changes and
// passes the result to fn. The returned function stops watching.
func Watch(o LoadOptions, fn ReloadFunc, opts ...watcher.Option) (func() error, error) {
	if o.File == "" {
		return nil, fmt.Errorf("%w: no config file to watch", ErrFileNotFound)
	}
	w, err := watcher.New(opts...)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(watcher.Event) {
		fn(LoadWith(o))
	})
	if err := w.Watch(o.File); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w.Close, nil
}

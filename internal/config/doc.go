// Package config provides the configuration system for Scribe.
//
// The config package loads, merges and validates the settings of the
// editing engine: logging, editor behavior, guards, placeholders,
// extraction and script plugins.
//
// # Architecture
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Overrides               │  ← Highest priority (command line)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← SCRIBE_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← scribe.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: TOML and environment variable loading, map merging
//   - watcher: file watching for live reload
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithFile("scribe.toml"), config.WithEnv())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Editor.HistorySize)
//
// # Environment Variables
//
// Variables use the SCRIBE_ prefix. The first segment names the section:
//
//	SCRIBE_LOG_LEVEL=debug
//	SCRIBE_EDITOR_HISTORY_SIZE=200
//	SCRIBE_EXTRACT_GENERATOR=upper
//	SCRIBE_GUARDS_HIGHLIGHT_REMAP_ON_CHANGE=true
//
// # Live Reload
//
// Watch reloads the configuration whenever the file changes:
//
//	stop, err := config.Watch(opts, func(cfg *config.Config, err error) {
//	    // apply cfg
//	})
//	defer stop()
package config

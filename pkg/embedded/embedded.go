// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - Experiment presets (presets/) - ready-to-submit experiment specs in
//   YAML form, one file per preset, served via the presets API and the CLI
//
// Presets on disk (PRESETS_DIR) with the same name shadow embedded ones.
//
//go:embed presets
var Files embed.FS

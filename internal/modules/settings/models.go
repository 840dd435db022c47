package settings

import "errors"

// ErrUnknownSetting is returned when a key outside SettingDefaults is
// read or written. Unknown keys are rejected rather than stored so a
// typo cannot silently shadow a real setting.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingDefaults holds the default value for every configurable setting.
// Numeric settings are stored as floats, flags as 1.0/0.0.
var SettingDefaults = map[string]interface{}{
	// Run lifecycle
	"retention_days":      90.0,   // Days to keep finished runs (0 = keep forever)
	"max_concurrent_runs": 1.0,    // Optimization slots in the work processor
	"max_run_seconds":     3600.0, // Wall-clock limit per run (0 = no limit)

	// Submission defaults
	"default_hyperparameters": "", // JSON hyperparameter overrides applied to new runs

	// Backups
	"backup_enabled":           1.0,  // Nightly local database backups
	"r2_backup_enabled":        0.0,  // Mirror backup archives to Cloudflare R2
	"r2_backup_retention_days": 90.0, // Days to keep R2 archives (0 = keep forever)
}

// StringSettings defines which settings are stored verbatim rather than
// parsed as floats.
var StringSettings = map[string]bool{
	"default_hyperparameters": true,
}

// SettingDescriptions holds human-readable descriptions for all settings.
var SettingDescriptions = map[string]string{
	"retention_days":           "Days to keep finished runs before the hourly prune job deletes them (0 = keep forever)",
	"max_concurrent_runs":      "Number of optimization runs the work processor executes in parallel",
	"max_run_seconds":          "Wall-clock limit per optimization run in seconds (0 = no limit)",
	"default_hyperparameters":  "JSON hyperparameter overrides merged into every submitted spec (e.g. {\"reps\": 2000})",
	"backup_enabled":           "Enable the nightly local database backup job (1.0 = yes, 0.0 = no)",
	"r2_backup_enabled":        "Mirror backup archives to Cloudflare R2 (requires R2 credentials in the environment)",
	"r2_backup_retention_days": "Days to keep backup archives in R2 before rotation (0 = keep forever)",
}

// SettingUpdate represents a setting value update request.
type SettingUpdate struct {
	Value interface{} `json:"value"`
}

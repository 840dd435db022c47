package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// Service provides typed access to settings on top of the repository.
// Reads fall back to SettingDefaults when a key has never been stored,
// and writes reject keys outside the known set.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// Get retrieves a setting as its typed value (string or float64),
// falling back to the default when unset.
func (s *Service) Get(key string) (interface{}, error) {
	def, ok := SettingDefaults[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	raw, err := s.repo.Get(key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return def, nil
	}

	if StringSettings[key] {
		return *raw, nil
	}

	floatVal, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		s.log.Warn().Str("key", key).Str("value", *raw).Msg("Stored setting is not numeric, using default")
		return def, nil
	}
	return floatVal, nil
}

// GetAll returns every known setting with stored values overlaid on the
// defaults.
func (s *Service) GetAll() (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(SettingDefaults))
	for key, def := range SettingDefaults {
		result[key] = def
	}

	stored, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	for key, raw := range stored {
		if _, known := SettingDefaults[key]; !known {
			continue
		}
		if StringSettings[key] {
			result[key] = raw
			continue
		}
		if floatVal, err := strconv.ParseFloat(raw, 64); err == nil {
			result[key] = floatVal
		}
	}

	return result, nil
}

// Set validates and stores a setting value. Numeric settings accept JSON
// numbers and booleans (stored as 1/0); string settings accept strings.
func (s *Service) Set(key string, value interface{}) error {
	if _, ok := SettingDefaults[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	desc := description(key)

	if StringSettings[key] {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("setting %s expects a string value", key)
		}
		if err := s.validateString(key, str); err != nil {
			return err
		}
		return s.repo.Set(key, str, desc)
	}

	floatVal, err := toFloat(value)
	if err != nil {
		return fmt.Errorf("setting %s expects a numeric value: %w", key, err)
	}
	if floatVal < 0 {
		return fmt.Errorf("setting %s must not be negative", key)
	}
	return s.repo.Set(key, strconv.FormatFloat(floatVal, 'f', -1, 64), desc)
}

// validateString rejects malformed values for structured string settings.
func (s *Service) validateString(key, value string) error {
	if key == "default_hyperparameters" && value != "" {
		hp := synthesis.DefaultHyperparameters()
		if err := json.Unmarshal([]byte(value), &hp); err != nil {
			return fmt.Errorf("default_hyperparameters must be a hyperparameters JSON object: %w", err)
		}
	}
	return nil
}

// RetentionDays returns how long finished runs are kept.
func (s *Service) RetentionDays() int {
	days, err := s.repo.GetInt("retention_days", 90)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read retention_days, using default")
		return 90
	}
	return days
}

// MaxConcurrentRuns returns the work processor's optimization slot count.
func (s *Service) MaxConcurrentRuns() int {
	slots, err := s.repo.GetInt("max_concurrent_runs", 1)
	if err != nil || slots < 1 {
		return 1
	}
	return slots
}

// MaxRunTimeout returns the per-run wall-clock limit (0 = no limit).
func (s *Service) MaxRunTimeout() time.Duration {
	seconds, err := s.repo.GetInt("max_run_seconds", 3600)
	if err != nil || seconds < 0 {
		return 3600 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// BackupEnabled reports whether the nightly local backup job runs.
func (s *Service) BackupEnabled() bool {
	return s.flag("backup_enabled", true)
}

// R2BackupEnabled reports whether backup archives are mirrored to R2.
func (s *Service) R2BackupEnabled() bool {
	return s.flag("r2_backup_enabled", false)
}

// R2RetentionDays returns how long R2 archives are kept before rotation.
func (s *Service) R2RetentionDays() int {
	days, err := s.repo.GetInt("r2_backup_retention_days", 90)
	if err != nil || days < 0 {
		return 90
	}
	return days
}

// DefaultHyperparameters returns the package defaults with any stored
// JSON overrides applied. Implements the run service's DefaultsProvider,
// so overrides take effect on the next submission without a restart.
func (s *Service) DefaultHyperparameters() synthesis.Hyperparameters {
	hp := synthesis.DefaultHyperparameters()

	raw, err := s.repo.Get("default_hyperparameters")
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read default_hyperparameters, using package defaults")
		return hp
	}
	if raw == nil || *raw == "" {
		return hp
	}

	if err := json.Unmarshal([]byte(*raw), &hp); err != nil {
		s.log.Warn().Err(err).Msg("Stored default_hyperparameters is not valid JSON, using package defaults")
		return synthesis.DefaultHyperparameters()
	}
	return hp
}

// flag reads a float-stored boolean setting.
func (s *Service) flag(key string, defaultValue bool) bool {
	def := 0.0
	if defaultValue {
		def = 1.0
	}
	val, err := s.repo.GetFloat(key, def)
	if err != nil {
		return defaultValue
	}
	return val != 0
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

func description(key string) *string {
	if desc, ok := SettingDescriptions[key]; ok {
		return &desc
	}
	return nil
}

package runs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/pkg/embedded"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrPresetNotFound indicates an unknown preset name.
var ErrPresetNotFound = errors.New("preset not found")

// Preset is a named, ready-to-submit experiment spec.
type Preset struct {
	Name   string                   `json:"name"`
	Source string                   `json:"source"` // "embedded" or "disk"
	Spec   synthesis.ExperimentSpec `json:"spec"`
}

// PresetStore serves experiment presets from the embedded set and an
// optional on-disk directory. Disk presets shadow embedded ones of the
// same name.
type PresetStore struct {
	fsys fs.FS
	dir  string
	log  zerolog.Logger
}

// NewPresetStore creates a preset store. dir may be empty to serve only
// the embedded presets.
func NewPresetStore(dir string, log zerolog.Logger) (*PresetStore, error) {
	fsys, err := fs.Sub(embedded.Files, "presets")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded presets: %w", err)
	}
	return &PresetStore{
		fsys: fsys,
		dir:  dir,
		log:  log.With().Str("component", "presets").Logger(),
	}, nil
}

// List returns all presets sorted by name. Files that fail to parse are
// skipped with a warning.
func (p *PresetStore) List() []Preset {
	byName := make(map[string]Preset)

	entries, err := fs.ReadDir(p.fsys, ".")
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to read embedded presets")
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(p.fsys, entry.Name())
		if err != nil {
			continue
		}
		preset, err := p.parse(data, presetName(entry.Name()), "embedded")
		if err != nil {
			p.log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping malformed embedded preset")
			continue
		}
		byName[preset.Name] = *preset
	}

	if p.dir != "" {
		diskEntries, err := os.ReadDir(p.dir)
		if err != nil && !os.IsNotExist(err) {
			p.log.Warn().Err(err).Str("dir", p.dir).Msg("Failed to read preset directory")
		}
		for _, entry := range diskEntries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(p.dir, entry.Name()))
			if err != nil {
				continue
			}
			preset, err := p.parse(data, presetName(entry.Name()), "disk")
			if err != nil {
				p.log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping malformed preset")
				continue
			}
			byName[preset.Name] = *preset
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	presets := make([]Preset, 0, len(names))
	for _, name := range names {
		presets = append(presets, byName[name])
	}
	return presets
}

// Get retrieves one preset by name, preferring the disk copy.
func (p *PresetStore) Get(name string) (*Preset, error) {
	// Names come from URLs; anything path-like is rejected outright.
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") {
		return nil, ErrPresetNotFound
	}

	if p.dir != "" {
		if data, err := os.ReadFile(filepath.Join(p.dir, name+".yaml")); err == nil {
			return p.parse(data, name, "disk")
		}
	}

	data, err := fs.ReadFile(p.fsys, name+".yaml")
	if err != nil {
		return nil, ErrPresetNotFound
	}
	return p.parse(data, name, "embedded")
}

func (p *PresetStore) parse(data []byte, name, source string) (*Preset, error) {
	var spec synthesis.ExperimentSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse preset %s: %w", name, err)
	}
	if spec.Name == "" {
		spec.Name = name
	}
	return &Preset{Name: name, Source: source, Spec: spec}, nil
}

func presetName(filename string) string {
	return strings.TrimSuffix(filename, ".yaml")
}

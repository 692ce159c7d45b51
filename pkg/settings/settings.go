// Package settings holds the user settings read by the narrator.
//
// Settings are loaded from a YAML (or JSON) file into a generic map, overlaid with
// NARRATOR_<KEY> environment variables and decoded with mapstructure. Reads are synchronous;
// the only writes are the boolean flips performed by the toggle commands.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. NARRATOR_WRAP=true.
const EnvPrefix = "NARRATOR_"

// ErrUnknownSetting is returned for keys that are not settings (or not toggles).
var ErrUnknownSetting = errors.New("unknown setting")

// Precedence orders the announcements of a correction session.
type Precedence string

const (
	// ErrorFirst announces a changed error widget before the changed context line.
	ErrorFirst Precedence = "error_first"
	// ContextFirst announces the changed context line first.
	ContextFirst Precedence = "context_first"
)

// Settings is the full set of user settings.
type Settings struct {
	SayAllGranularity     domain.Granularity `mapstructure:"say_all_granularity" yaml:"say_all_granularity" json:"say_all_granularity"`
	RewindAndFastForward  bool               `mapstructure:"rewind_and_fast_forward" yaml:"rewind_and_fast_forward" json:"rewind_and_fast_forward"`
	LayoutMode            bool               `mapstructure:"layout_mode" yaml:"layout_mode" json:"layout_mode"`
	NavigationKeepsMode   bool               `mapstructure:"navigation_keeps_mode" yaml:"navigation_keeps_mode" json:"navigation_keeps_mode"`
	CaretNavigation       bool               `mapstructure:"caret_navigation" yaml:"caret_navigation" json:"caret_navigation"`
	StructuralNavigation  bool               `mapstructure:"structural_navigation" yaml:"structural_navigation" json:"structural_navigation"`
	SkipBlankLines        bool               `mapstructure:"skip_blank_lines" yaml:"skip_blank_lines" json:"skip_blank_lines"`
	CacheEvictionInterval time.Duration      `mapstructure:"cache_eviction_interval" yaml:"cache_eviction_interval" json:"cache_eviction_interval"`
	CorrectionPrecedence  Precedence         `mapstructure:"correction_precedence" yaml:"correction_precedence" json:"correction_precedence"`
	Wrap                  bool               `mapstructure:"wrap" yaml:"wrap" json:"wrap"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		SayAllGranularity:     domain.GranularityLine,
		RewindAndFastForward:  true,
		LayoutMode:            true,
		NavigationKeepsMode:   true,
		CaretNavigation:       true,
		StructuralNavigation:  true,
		CacheEvictionInterval: 60 * time.Second,
		CorrectionPrecedence:  ErrorFirst,
	}
}

// Keys lists every setting key.
func Keys() []string {
	t := reflect.TypeFor[Settings]()
	keys := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		keys = append(keys, t.Field(i).Tag.Get("mapstructure"))
	}
	return keys
}

// toggles are the keys the toggle commands may flip.
var toggles = []string{
	"rewind_and_fast_forward",
	"layout_mode",
	"navigation_keeps_mode",
	"caret_navigation",
	"structural_navigation",
	"skip_blank_lines",
	"wrap",
}

// Load reads settings from path over the defaults, then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (Settings, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		default:
			if raw, err = parse(path, data); err != nil {
				return Settings{}, err
			}
		}
	}
	ApplyEnv(raw, os.Environ())
	return Decode(raw)
}

func parse(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
		return raw, nil
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// ApplyEnv overlays NARRATOR_<KEY> variables from environ onto raw. Unknown keys are
// ignored.
func ApplyEnv(raw map[string]any, environ []string) {
	keys := Keys()
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if slices.Contains(keys, key) {
			raw[key] = value
		}
	}
}

// Decode decodes raw over the defaults. Unknown keys and invalid enum values are errors.
func Decode(raw map[string]any) (Settings, error) {
	s := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			enumHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
		Result:           &s,
	})
	if err != nil {
		return Settings{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func enumHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	v := strings.ToLower(strings.TrimSpace(data.(string)))
	switch to {
	case reflect.TypeFor[domain.Granularity]():
		return domain.Granularity(v), nil
	case reflect.TypeFor[Precedence]():
		return Precedence(v), nil
	}
	return data, nil
}

// Validate checks the enumerated settings.
func (s Settings) Validate() error {
	switch s.SayAllGranularity {
	case domain.GranularityLine, domain.GranularitySentence:
	default:
		return fmt.Errorf("invalid say_all_granularity %q", s.SayAllGranularity)
	}
	switch s.CorrectionPrecedence {
	case ErrorFirst, ContextFirst:
	default:
		return fmt.Errorf("invalid correction_precedence %q", s.CorrectionPrecedence)
	}
	if s.CacheEvictionInterval < 0 {
		return fmt.Errorf("cache_eviction_interval must not be negative")
	}
	return nil
}

// Toggle flips the boolean setting key and returns its new value.
func (s *Settings) Toggle(key string) (bool, error) {
	if !slices.Contains(toggles, key) {
		return false, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	p := s.flag(key)
	*p = !*p
	return *p, nil
}

func (s *Settings) flag(key string) *bool {
	switch key {
	case "rewind_and_fast_forward":
		return &s.RewindAndFastForward
	case "layout_mode":
		return &s.LayoutMode
	case "navigation_keeps_mode":
		return &s.NavigationKeepsMode
	case "caret_navigation":
		return &s.CaretNavigation
	case "structural_navigation":
		return &s.StructuralNavigation
	case "skip_blank_lines":
		return &s.SkipBlankLines
	}
	return &s.Wrap
}

// Write serialises s as YAML.
func (s Settings) Write(path string) error {
	out := map[string]any{}
	if err := mapstructure.Decode(s, &out); err != nil {
		return err
	}
	out["cache_eviction_interval"] = s.CacheEvictionInterval.String()
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

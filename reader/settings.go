package reader

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"alexandria_reader/utils"
)

// SettingsKey is where reader settings live in the key-value store.
const SettingsKey = "reader:settings.v1"

type (
	FontSize    string
	LineSpacing string
	FontFamily  string
	Theme       string
	Width       string
	Mode        string
)

const (
	FontSmall  FontSize = "sm"
	FontMedium FontSize = "md"
	FontLarge  FontSize = "lg"

	SpacingCompact LineSpacing = "compact"
	SpacingNormal  LineSpacing = "normal"
	SpacingRelaxed LineSpacing = "relaxed"

	FamilySerif FontFamily = "serif"
	FamilySans  FontFamily = "sans"

	ThemeDay   Theme = "day"
	ThemeNight Theme = "night"
	ThemeSepia Theme = "sepia"

	WidthNarrow Width = "narrow"
	WidthNormal Width = "normal"
	WidthWide   Width = "wide"

	ModeScroll Mode = "scroll"
	ModePage   Mode = "page"
)

var (
	FontSizes    = []FontSize{FontSmall, FontMedium, FontLarge}
	LineSpacings = []LineSpacing{SpacingCompact, SpacingNormal, SpacingRelaxed}
	FontFamilies = []FontFamily{FamilySerif, FamilySans}
	Themes       = []Theme{ThemeDay, ThemeNight, ThemeSepia}
	Widths       = []Width{WidthNarrow, WidthNormal, WidthWide}
	Modes        = []Mode{ModeScroll, ModePage}
)

type Settings struct {
	FontSize    FontSize    `json:"fontSize"`
	LineSpacing LineSpacing `json:"lineSpacing"`
	FontFamily  FontFamily  `json:"fontFamily"`
	Theme       Theme       `json:"theme"`
	Width       Width       `json:"width"`
	Brightness  int         `json:"brightness"`
	Mode        Mode        `json:"mode"`
}

func DefaultSettings() Settings {
	return Settings{
		FontSize:    FontMedium,
		LineSpacing: SpacingNormal,
		FontFamily:  FamilySerif,
		Theme:       ThemeDay,
		Width:       WidthNormal,
		Brightness:  0,
		Mode:        ModeScroll,
	}
}

func oneOf[T comparable](v T, allowed []T, def T) T {
	for _, a := range allowed {
		if a == v {
			return v
		}
	}
	return def
}

// Cycle returns the value delta steps away from cur, wrapping around.
func Cycle[T comparable](values []T, cur T, delta int) T {
	idx := 0
	for i, v := range values {
		if v == cur {
			idx = i
			break
		}
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

// Normalize replaces values outside their domain with defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	s.FontSize = oneOf(s.FontSize, FontSizes, d.FontSize)
	s.LineSpacing = oneOf(s.LineSpacing, LineSpacings, d.LineSpacing)
	s.FontFamily = oneOf(s.FontFamily, FontFamilies, d.FontFamily)
	s.Theme = oneOf(s.Theme, Themes, d.Theme)
	s.Width = oneOf(s.Width, Widths, d.Width)
	s.Mode = oneOf(s.Mode, Modes, d.Mode)
	s.Brightness = min(max(s.Brightness, 0), 100)
	return s
}

// layout is the part of the settings that changes how text is measured.
type layout struct {
	FontSize    FontSize
	LineSpacing LineSpacing
	Width       Width
	FontFamily  FontFamily
}

func (s Settings) layout() layout {
	return layout{FontSize: s.FontSize, LineSpacing: s.LineSpacing, Width: s.Width, FontFamily: s.FontFamily}
}

// ParseSettings overlays stored JSON on the defaults. Missing fields keep
// their defaults, unknown fields are ignored.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("malformed reader settings: %w", err)
	}
	return s.Normalize(), nil
}

// SettingsStore owns the reader settings: loaded once, saved on every change.
type SettingsStore struct {
	kv  utils.KV
	log *zap.Logger

	mu      sync.Mutex
	current Settings
}

func NewSettingsStore(kv utils.KV, log *zap.Logger) *SettingsStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SettingsStore{kv: kv, log: log.Named("settings"), current: DefaultSettings()}

	data, ok, err := kv.Get(SettingsKey)
	switch {
	case err != nil:
		s.log.Warn("Unable to read reader settings, using defaults", zap.Error(err))
	case ok:
		if s.current, err = ParseSettings(data); err != nil {
			s.log.Warn("Ignoring stored reader settings", zap.Error(err))
		}
	}
	return s
}

func (s *SettingsStore) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn and persists the result if anything changed. The new
// settings are kept in memory even when saving fails.
func (s *SettingsStore) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)
	next = next.Normalize()
	if next == s.current {
		return next, nil
	}
	s.current = next

	data, err := json.Marshal(next)
	if err != nil {
		return next, err
	}
	if err := s.kv.Set(SettingsKey, data); err != nil {
		return next, fmt.Errorf("saving reader settings: %w", err)
	}
	return next, nil
}

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Display settings defaults. Any field that is missing or invalid in a
// stored settings blob falls back to these values.
const (
	DefaultSettingsVersion   = 1
	DefaultTheme             = "dark"
	DefaultLayout            = "grid"
	DefaultSlideshowInterval = 15
	DefaultSlideshowEffect   = "fade"
	DefaultDailyReloadTime   = "04:00"
)

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}
var validLayouts = map[string]bool{"grid": true, "agenda": true, "split": true}
var validEffects = map[string]bool{"fade": true, "slide": true, "none": true}

// DisplayWidgets toggles the individual kiosk widgets on or off.
type DisplayWidgets struct {
	Calendar bool `json:"calendar"`
	Chores   bool `json:"chores"`
	Photos   bool `json:"photos"`
	Clock    bool `json:"clock"`
}

// DisplaySettings is the versioned kiosk configuration stored per display.
type DisplaySettings struct {
	Version           int            `json:"version"`
	Theme             string         `json:"theme"`
	Layout            string         `json:"layout"`
	Widgets           DisplayWidgets `json:"widgets"`
	SlideshowInterval int            `json:"slideshow_interval"` // seconds
	SlideshowEffect   string         `json:"slideshow_effect"`
	BurnInProtection  bool           `json:"burn_in_protection"`
	AmbientAnimations bool           `json:"ambient_animations"`
	TwentyFourHour    bool           `json:"twenty_four_hour"`
	DailyReloadTime   string         `json:"daily_reload_time"` // "HH:MM"
}

// DefaultDisplaySettings returns the documented defaults for a new display.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		Version: DefaultSettingsVersion,
		Theme:   DefaultTheme,
		Layout:  DefaultLayout,
		Widgets: DisplayWidgets{
			Calendar: true,
			Chores:   true,
			Photos:   true,
			Clock:    true,
		},
		SlideshowInterval: DefaultSlideshowInterval,
		SlideshowEffect:   DefaultSlideshowEffect,
		BurnInProtection:  true,
		AmbientAnimations: true,
		TwentyFourHour:    false,
		DailyReloadTime:   DefaultDailyReloadTime,
	}
}

// rawDisplaySettings mirrors DisplaySettings with every field optional, so a
// blob with missing or mistyped fields can still be salvaged field by field.
type rawDisplaySettings struct {
	Version           *int             `json:"version"`
	Theme             *string          `json:"theme"`
	Layout            *string          `json:"layout"`
	Widgets           *json.RawMessage `json:"widgets"`
	SlideshowInterval *int             `json:"slideshow_interval"`
	SlideshowEffect   *string          `json:"slideshow_effect"`
	BurnInProtection  *bool            `json:"burn_in_protection"`
	AmbientAnimations *bool            `json:"ambient_animations"`
	TwentyFourHour    *bool            `json:"twenty_four_hour"`
	DailyReloadTime   *string          `json:"daily_reload_time"`
}

// ParseDisplaySettings parses a stored settings blob. Every missing or
// invalid field falls back to its default; unknown fields are ignored. An
// empty blob yields the defaults. Only payloads that are not a JSON object
// at all are rejected.
func ParseDisplaySettings(data []byte) (DisplaySettings, error) {
	settings := DefaultDisplaySettings()
	if len(data) == 0 {
		return settings, nil
	}

	var raw rawDisplaySettings
	if err := json.Unmarshal(data, &raw); err != nil {
		// Retry field-by-field via a generic map so one mistyped field
		// does not discard the rest of the payload.
		var probe map[string]json.RawMessage
		if mapErr := json.Unmarshal(data, &probe); mapErr != nil {
			return settings, fmt.Errorf("display settings is not a JSON object: %w", mapErr)
		}
		salvageRawSettings(probe, &raw)
	}

	if raw.Version != nil && *raw.Version > 0 {
		settings.Version = *raw.Version
	}
	if raw.Theme != nil && validThemes[*raw.Theme] {
		settings.Theme = *raw.Theme
	}
	if raw.Layout != nil && validLayouts[*raw.Layout] {
		settings.Layout = *raw.Layout
	}
	if raw.Widgets != nil {
		widgets := settings.Widgets
		if err := json.Unmarshal(*raw.Widgets, &widgets); err == nil {
			settings.Widgets = widgets
		}
	}
	if raw.SlideshowInterval != nil && *raw.SlideshowInterval >= 3 && *raw.SlideshowInterval <= 3600 {
		settings.SlideshowInterval = *raw.SlideshowInterval
	}
	if raw.SlideshowEffect != nil && validEffects[*raw.SlideshowEffect] {
		settings.SlideshowEffect = *raw.SlideshowEffect
	}
	if raw.BurnInProtection != nil {
		settings.BurnInProtection = *raw.BurnInProtection
	}
	if raw.AmbientAnimations != nil {
		settings.AmbientAnimations = *raw.AmbientAnimations
	}
	if raw.TwentyFourHour != nil {
		settings.TwentyFourHour = *raw.TwentyFourHour
	}
	if raw.DailyReloadTime != nil && validClockTime(*raw.DailyReloadTime) {
		settings.DailyReloadTime = *raw.DailyReloadTime
	}

	return settings, nil
}

// salvageRawSettings decodes each known field individually, skipping any
// whose value has the wrong type.
func salvageRawSettings(probe map[string]json.RawMessage, raw *rawDisplaySettings) {
	decode := func(key string, dst any) {
		if v, ok := probe[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	decode("version", &raw.Version)
	decode("theme", &raw.Theme)
	decode("layout", &raw.Layout)
	decode("widgets", &raw.Widgets)
	decode("slideshow_interval", &raw.SlideshowInterval)
	decode("slideshow_effect", &raw.SlideshowEffect)
	decode("burn_in_protection", &raw.BurnInProtection)
	decode("ambient_animations", &raw.AmbientAnimations)
	decode("twenty_four_hour", &raw.TwentyFourHour)
	decode("daily_reload_time", &raw.DailyReloadTime)
}

// validClockTime checks a "HH:MM" wall-clock string.
func validClockTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

// Encode serializes the settings back to the stored JSON form.
func (s DisplaySettings) Encode() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode display settings: %w", err)
	}
	return data, nil
}

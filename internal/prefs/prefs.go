// Package prefs stores per-session appearance preferences behind the
// key-value port, with documented defaults when nothing is stored.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/imrishuroy/go-storefront-api/internal/kv"
)

const keyPrefix = "prefs:"

// Accepted preference values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	FontSizeSmall  = "small"
	FontSizeMedium = "medium"
	FontSizeLarge  = "large"
)

// Preferences are the session's appearance settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
	FontSize string `json:"fontSize"`
}

// Defaults returns the documented fallback preferences.
func Defaults() Preferences {
	return Preferences{
		Theme:    ThemeLight,
		Language: "en",
		FontSize: FontSizeMedium,
	}
}

// normalize replaces unrecognized fields with their defaults, field by field,
// so one bad value does not discard the rest of a stored record.
func (p Preferences) normalize() Preferences {
	d := Defaults()
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		p.Theme = d.Theme
	}
	if p.Language == "" {
		p.Language = d.Language
	}
	switch p.FontSize {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
	default:
		p.FontSize = d.FontSize
	}
	return p
}

// Store persists preferences through the key-value port.
type Store struct {
	kv kv.Store
}

// NewStore returns a Store over the given key-value port.
func NewStore(kvStore kv.Store) *Store {
	return &Store{kv: kvStore}
}

// Load returns the session's preferences. A missing or corrupt key falls back
// to Defaults rather than failing.
func (s *Store) Load(ctx context.Context, sessionID string) (Preferences, error) {
	raw, ok, err := s.kv.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return Defaults(), fmt.Errorf("load preferences %s: %w", sessionID, err)
	}
	if !ok {
		return Defaults(), nil
	}

	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Printf("corrupt preferences for %s, using defaults: %v", sessionID, err)
		return Defaults(), nil
	}
	return p.normalize(), nil
}

// Save writes the session's preferences, normalizing unrecognized values.
func (s *Store) Save(ctx context.Context, sessionID string, p Preferences) error {
	raw, err := json.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal preferences %s: %w", sessionID, err)
	}
	if err := s.kv.Set(ctx, keyPrefix+sessionID, string(raw)); err != nil {
		return fmt.Errorf("save preferences %s: %w", sessionID, err)
	}
	return nil
}

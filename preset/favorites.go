package preset

import (
	"encoding/json"
	"fmt"
	"os"
)

// FavoriteEntry is one preset's favorites metadata, keyed by its
// relative path from the preset root (§6: "Preset id is the relative
// path from the preset root").
type FavoriteEntry struct {
	Favorite bool    `json:"favorite"`
	Rating   int     `json:"rating"` // 0..5
	UseCount int     `json:"useCount"`
	LastUsed *string `json:"lastUsed"` // ISO-8601, nil if never used
}

// FavoritesStore is the on-disk favorites.json document.
type FavoritesStore struct {
	Presets map[string]FavoriteEntry `json:"presets"`
}

// LoadFavorites reads the favorites store at path. A missing file is not
// an error — it returns an empty store, matching the teacher's
// loadIndex "absent means fresh start" behavior.
func LoadFavorites(path string) (*FavoritesStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FavoritesStore{Presets: map[string]FavoriteEntry{}}, nil
		}
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	var s FavoritesStore
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("preset: parse %s: %w", path, err)
	}
	if s.Presets == nil {
		s.Presets = map[string]FavoriteEntry{}
	}
	return &s, nil
}

// Save writes the favorites store to path as indented JSON.
func (s *FavoritesStore) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("preset: marshal favorites: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("preset: write %s: %w", path, err)
	}
	return nil
}

// SetFavorite toggles the favorite flag for a preset id, creating the
// entry if it doesn't exist yet.
func (s *FavoritesStore) SetFavorite(presetID string, favorite bool) {
	e := s.Presets[presetID]
	e.Favorite = favorite
	s.Presets[presetID] = e
}

// SetRating sets a preset's star rating, clamped to [0,5].
func (s *FavoritesStore) SetRating(presetID string, rating int) {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	e := s.Presets[presetID]
	e.Rating = rating
	s.Presets[presetID] = e
}

// RecordUse increments useCount and stamps lastUsed, called each time a
// preset is applied to a node. No cleanup policy is prescribed for
// stale entries — an open question in the source schema, preserved here
// rather than invented.
func (s *FavoritesStore) RecordUse(presetID string, timestamp string) {
	e := s.Presets[presetID]
	e.UseCount++
	e.LastUsed = &timestamp
	s.Presets[presetID] = e
}

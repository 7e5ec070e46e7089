// Package localization provides the texts of the system notices shown in the chat log.
// Translations are JSON files named after the language code (e.g. "en.json").
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Keys of the system notices.
const (
	KeySearchProgress = "search.progress"
	KeyPartnerFound   = "partner.found"
	KeyPartnerLeft    = "partner.left"
)

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	fallback     string
	mu           sync.RWMutex
}

// Default returns a Localizer backed by the built-in translations.
func Default() *Localizer {
	l, err := NewLocalizerFS(embedded, "locales", "en")
	if err != nil {
		panic(fmt.Sprintf("localization: built-in translations are broken: %v", err))
	}
	return l
}

// NewLocalizerFS loads every *.json file from dir inside fsys.
// Keys missing from a language resolve through the fallback language.
func NewLocalizerFS(fsys fs.FS, dir, fallback string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
		fallback:     fallback,
	}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	return l, nil
}

// GetString returns the localized string for a given key and language.
// If the language or the key is not found, it returns the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != l.fallback {
		if fallbackTranslations, ok := l.translations[l.fallback]; ok {
			if value, ok := fallbackTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Format looks up key and applies fmt.Sprintf with args.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

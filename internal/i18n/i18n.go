package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/accordbot/accord/internal/logging"
	"gopkg.in/yaml.v3"
)

// Translator resolves a phrase for a locale, with optional {{key}} replacers
type Translator interface {
	Translate(phrase, locale string, replacers map[string]string) string
}

// Catalog is a Translator backed by per-locale YAML files, one file per
// locale (en.yaml, fr.yaml, ...), each mapping phrase -> text.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	phrases       map[string]map[string]string // locale -> phrase -> text
}

// NewCatalog creates an empty catalog with the given fallback locale
func NewCatalog(defaultLocale string) *Catalog {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Catalog{
		defaultLocale: defaultLocale,
		phrases:       make(map[string]map[string]string),
	}
}

// LoadDir loads every locale file from a directory.
// A bad file skips that locale with a warning rather than failing the load.
func (c *Catalog) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to glob locales: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to glob locales: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		locale := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(file), ".yaml"), ".yml")
		if err := c.loadFile(locale, file); err != nil {
			logging.Warn("i18n", "Failed to load locale %s: %v", locale, err)
			continue
		}
		logging.Info("i18n", "Loaded locale: %s", locale)
	}
	return nil
}

func (c *Catalog) loadFile(locale, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	phrases := make(map[string]string)
	if err := yaml.Unmarshal(data, &phrases); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phrases[locale] = phrases
	return nil
}

// Set registers a single phrase translation (used by tests and talents)
func (c *Catalog) Set(locale, phrase, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phrases[locale] == nil {
		c.phrases[locale] = make(map[string]string)
	}
	c.phrases[locale][phrase] = text
}

// Translate looks up the phrase in the requested locale, falling back to
// the default locale, then to the phrase itself.
func (c *Catalog) Translate(phrase, locale string, replacers map[string]string) string {
	c.mu.RLock()
	text, ok := c.phrases[locale][phrase]
	if !ok {
		text, ok = c.phrases[c.defaultLocale][phrase]
	}
	c.mu.RUnlock()
	if !ok {
		text = phrase
	}
	return Replace(text, replacers)
}

// Replace substitutes {{key}} placeholders in a phrase
func Replace(text string, replacers map[string]string) string {
	for key, value := range replacers {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}

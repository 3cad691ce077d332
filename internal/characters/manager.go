package characters

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager holds the characters loaded from a directory and serves them
// by ID.
type Manager struct {
	characters map[string]Character
	logger     *slog.Logger
}

// NewManager loads every *.json file in dir as a character, skipping
// template.json. Files that fail to parse or validate are logged and
// skipped; loading continues. The character ID is the filename without
// its extension.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading characters directory %s: %w", dir, err)
	}

	m := &Manager{
		characters: make(map[string]Character),
		logger:     logger,
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == "template.json" {
			continue
		}

		id := strings.TrimSuffix(name, ".json")
		character, err := loadCharacter(filepath.Join(dir, name), id)
		if err != nil {
			logger.Warn("skipping character file", "file", name, "error", err)
			continue
		}

		m.characters[id] = character
		logger.Debug("loaded character", "id", id, "name", character.Name)
	}

	return m, nil
}

func loadCharacter(path, id string) (Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Character{}, err
	}

	var character Character
	if err := json.Unmarshal(data, &character); err != nil {
		return Character{}, fmt.Errorf("parsing character JSON: %w", err)
	}

	if err := validate.Struct(character); err != nil {
		return Character{}, fmt.Errorf("invalid character definition: %w", err)
	}

	character.ID = id
	return character, nil
}

// Get returns the character with the given ID.
func (m *Manager) Get(id string) (Character, bool) {
	c, ok := m.characters[id]
	return c, ok
}

// List returns all loaded characters sorted by name.
func (m *Manager) List() []Character {
	out := make([]Character, 0, len(m.characters))
	for _, c := range m.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IDs returns the loaded character IDs sorted alphabetically.
func (m *Manager) IDs() []string {
	ids := make([]string, 0, len(m.characters))
	for id := range m.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded characters.
func (m *Manager) Len() int { return len(m.characters) }

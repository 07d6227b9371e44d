// Package registry provides a global catalogue of arena maps.
// Built-in maps are embedded JSON files registered in init(); callers may
// register more at startup, allowing the server to discover maps without
// hardcoded dependencies.
package registry

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/world"
)

//go:embed maps/*.json
var builtinMaps embed.FS

// MapInfo contains metadata about a registered map.
type MapInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Players     int    `json:"players"`
	Balls       int    `json:"balls"`
}

// Factory returns a fresh copy of a map description.
type Factory func() (world.Map, error)

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]MapInfo)
	mu        sync.RWMutex
)

func init() {
	entries, err := builtinMaps.ReadDir("maps")
	if err != nil {
		panic(fmt.Sprintf("registry: read embedded maps: %v", err))
	}
	for _, e := range entries {
		data, err := builtinMaps.ReadFile(path.Join("maps", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("registry: read %s: %v", e.Name(), err))
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		Register(id, jsonFactory(data))
	}
}

func jsonFactory(data []byte) Factory {
	return func() (world.Map, error) {
		return world.Parse(data)
	}
}

// Register adds a map factory to the registry.
// Panics if a map with the same ID is already registered or the map is
// invalid.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: map %q already registered", id))
	}

	m, err := f()
	if err != nil {
		panic(fmt.Sprintf("registry: map %q: %v", id, err))
	}

	factories[id] = f
	infos[id] = MapInfo{
		ID:          id,
		Description: m.Description,
		Players:     m.PlayerCount(),
		Balls:       len(m.Balls),
	}
}

// RegisterFile loads a JSON map from disk and registers it under id.
func RegisterFile(id, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("registry: read map %s: %w", filename, err)
	}
	if _, err := world.Parse(data); err != nil {
		return err
	}
	if Exists(id) {
		return fmt.Errorf("registry: map %q already registered: %w", id, core.ErrConfiguration)
	}
	Register(id, jsonFactory(data))
	return nil
}

// List returns information about all registered maps, sorted by ID.
func List() []MapInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]MapInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create returns a fresh copy of the map with the given ID.
func Create(id string) (world.Map, error) {
	mu.RLock()
	f, ok := factories[id]
	mu.RUnlock()

	if !ok {
		return world.Map{}, fmt.Errorf("registry: unknown map %q: %w", id, core.ErrNotFound)
	}
	return f()
}

// Info returns metadata for one map.
func Info(id string) (MapInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()

	info, ok := infos[id]
	return info, ok
}

// Exists checks if a map with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

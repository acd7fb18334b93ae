package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lixenwraith/mapshot/core"
)

// ErrMapNotFound is returned when no descriptor matches the requested id
var ErrMapNotFound = fmt.Errorf("%w: map not found", core.ErrResource)

const descriptorExt = ".toml"

// Archive resolves map ids to descriptors under a root directory
// Built-in maps are consulted when the tree has no match
type Archive struct {
	root    string
	builtin map[string]string
}

// Open creates an archive over root; empty root serves built-in maps only
func Open(root string) (*Archive, error) {
	if root != "" {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: asset directory %s: %v", core.ErrResource, root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: asset path %s is not a directory", core.ErrResource, root)
		}
	}
	return &Archive{root: root, builtin: builtinMaps}, nil
}

// NormalizeID strips ".img" and ".toml" suffixes
func NormalizeID(id string) string {
	id = strings.TrimSuffix(id, descriptorExt)
	return strings.TrimSuffix(id, ".img")
}

// Find returns the descriptor path for id using breadth-first search from the root
func (a *Archive) Find(id string) (string, error) {
	if a.root == "" {
		return "", fmt.Errorf("%w: %s", ErrMapNotFound, id)
	}
	target := NormalizeID(id) + descriptorExt

	queue := []string{a.root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %v", core.ErrResource, dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && e.Name() == target {
				return filepath.Join(dir, e.Name()), nil
			}
		}
		for _, e := range entries {
			if e.IsDir() {
				queue = append(queue, filepath.Join(dir, e.Name()))
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMapNotFound, id)
}

// Load resolves and decodes a map
func (a *Archive) Load(id string) (*Map, error) {
	id = NormalizeID(id)

	var data string
	path, err := a.Find(id)
	switch {
	case err == nil:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", core.ErrResource, path, err)
		}
		data = string(raw)
	case errors.Is(err, ErrMapNotFound):
		text, ok := a.builtin[id]
		if !ok {
			return nil, err
		}
		data = text
	default:
		return nil, err
	}

	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", id, err)
	}
	if m.ID == "" {
		m.ID = id
	}
	return m, nil
}

// Decode parses a descriptor and validates it
func Decode(data string) (*Map, error) {
	var m Map
	if _, err := toml.Decode(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode descriptor: %v", core.ErrResource, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vietdv277/stratus/internal/engine"
	"github.com/vietdv277/stratus/pkg/provider"
	"github.com/vietdv277/stratus/pkg/types"
)

// FileStore keeps records as YAML files under a state directory:
// <dir>/<stack>/stack.yaml and <dir>/<stack>/groups/<name>.yaml
type FileStore struct {
	Dir string
}

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) stackPath(stack string) string {
	return filepath.Join(s.Dir, stack, "stack.yaml")
}

func (s *FileStore) groupPath(stack, name string) string {
	return filepath.Join(s.Dir, stack, "groups", name+".yaml")
}

// SaveStack writes the stack record
func (s *FileStore) SaveStack(_ context.Context, st *types.Stack) error {
	return writeYAML(s.stackPath(st.Name), st)
}

// LoadStack reads a stack record
func (s *FileStore) LoadStack(_ context.Context, name string) (*types.Stack, error) {
	var st types.Stack
	if err := readYAML(s.stackPath(name), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveGroup writes a group record
func (s *FileStore) SaveGroup(_ context.Context, stack string, g *engine.Group) error {
	return writeYAML(s.groupPath(stack, g.Name), g)
}

// LoadGroup reads a group record and restores its validated policy
func (s *FileStore) LoadGroup(_ context.Context, stack, name string) (*engine.Group, error) {
	var g engine.Group
	if err := readYAML(s.groupPath(stack, name), &g); err != nil {
		return nil, err
	}
	if err := restorePolicy(&g); err != nil {
		return nil, fmt.Errorf("failed to restore policy for group %q: %w", name, err)
	}
	return &g, nil
}

// SaveTemplate writes the stack's current template document
func (s *FileStore) SaveTemplate(_ context.Context, stack string, data []byte) error {
	path := filepath.Join(s.Dir, stack, "template.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// LoadTemplate reads the stack's current template document
func (s *FileStore) LoadTemplate(_ context.Context, stack string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, stack, "template.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, provider.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return data, nil
}

// ListGroups returns all group records of a stack, sorted by name
func (s *FileStore) ListGroups(ctx context.Context, stack string) ([]*engine.Group, error) {
	dir := filepath.Join(s.Dir, stack, "groups")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var groups []*engine.Group
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		g, err := s.LoadGroup(ctx, stack, strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return provider.ErrNotFound
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	return nil
}

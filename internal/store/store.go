// Package store persists workspace definitions and the tracked-artifact
// lists that launches return. It is plain CRUD: the engine never reads or
// writes here, it only receives items and returns artifacts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/track"
	"gopkg.in/yaml.v3"
)

type workspaceFile struct {
	Workspaces []config.Workspace `yaml:"workspaces"`
}

// Store keeps workspace definitions in one yaml document and per-workspace
// artifact state as JSON files under a state directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore opens (or initializes) a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "state"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ValidateName rejects workspace names that cannot become file names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("workspace name is empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("workspace name %q contains path separators", name)
	}
	return nil
}

func (s *Store) workspacesPath() string {
	return filepath.Join(s.dir, "workspaces.yaml")
}

func (s *Store) statePath(name string) string {
	return filepath.Join(s.dir, "state", name+".json")
}

// Workspaces returns all workspace definitions.
func (s *Store) Workspaces() ([]config.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Workspaces, nil
}

// Workspace returns one workspace by name.
func (s *Store) Workspace(name string) (config.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.load()
	if err != nil {
		return config.Workspace{}, err
	}
	for _, ws := range file.Workspaces {
		if ws.Name == name {
			return ws, nil
		}
	}
	return config.Workspace{}, fmt.Errorf("workspace not found: %s", name)
}

// SaveWorkspace inserts or replaces a workspace definition. Items without
// an id are assigned one.
func (s *Store) SaveWorkspace(ws config.Workspace) error {
	if err := ValidateName(ws.Name); err != nil {
		return err
	}
	for i := range ws.Items {
		if err := ws.Items[i].Validate(); err != nil {
			return err
		}
		if ws.Items[i].ID == "" {
			ws.Items[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Workspaces {
		if file.Workspaces[i].Name == ws.Name {
			file.Workspaces[i] = ws
			replaced = true
			break
		}
	}
	if !replaced {
		file.Workspaces = append(file.Workspaces, ws)
	}
	return s.save(file)
}

// AddItem appends an item to a workspace, creating the workspace if
// needed, and returns the stored item with its generated id.
func (s *Store) AddItem(workspace string, item config.Item) (config.Item, error) {
	if err := ValidateName(workspace); err != nil {
		return config.Item{}, err
	}
	if err := item.Validate(); err != nil {
		return config.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.load()
	if err != nil {
		return config.Item{}, err
	}

	for i := range file.Workspaces {
		if file.Workspaces[i].Name == workspace {
			file.Workspaces[i].Items = append(file.Workspaces[i].Items, item)
			return item, s.save(file)
		}
	}
	file.Workspaces = append(file.Workspaces, config.Workspace{
		Name:  workspace,
		Items: []config.Item{item},
	})
	return item, s.save(file)
}

// DeleteWorkspace removes a workspace definition and its artifact state.
func (s *Store) DeleteWorkspace(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.load()
	if err != nil {
		return err
	}

	filtered := file.Workspaces[:0]
	found := false
	for _, ws := range file.Workspaces {
		if ws.Name == name {
			found = true
			continue
		}
		filtered = append(filtered, ws)
	}
	if !found {
		return fmt.Errorf("workspace not found: %s", name)
	}
	file.Workspaces = filtered

	if err := s.save(file); err != nil {
		return err
	}
	if err := os.Remove(s.statePath(name)); err != nil && !os.IsNotExist(err) {
		logger.WithComponent("store").Warn().Err(err).Msg("failed to remove artifact state")
	}
	return nil
}

// Artifacts loads the tracked artifacts persisted for a workspace. A
// workspace that was never launched has none.
func (s *Store) Artifacts(name string) ([]track.Artifact, error) {
	data, err := os.ReadFile(s.statePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var artifacts []track.Artifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("failed to parse artifact state for %s: %w", name, err)
	}
	return artifacts, nil
}

// SaveArtifacts persists a workspace's tracked artifacts. The list is
// written verbatim; the caller hands back exactly what launch returned.
func (s *Store) SaveArtifacts(name string, artifacts []track.Artifact) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}
	return os.WriteFile(s.statePath(name), data, 0644)
}

// ClearArtifacts removes a workspace's artifact state after close.
func (s *Store) ClearArtifacts(name string) error {
	if err := os.Remove(s.statePath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) load() (*workspaceFile, error) {
	data, err := os.ReadFile(s.workspacesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &workspaceFile{}, nil
		}
		return nil, err
	}
	var file workspaceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse workspaces file: %w", err)
	}
	return &file, nil
}

func (s *Store) save(file *workspaceFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal workspaces: %w", err)
	}
	return os.WriteFile(s.workspacesPath(), data, 0644)
}

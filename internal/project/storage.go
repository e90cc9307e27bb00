package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/csheth/manuscripts/internal/atomicfile"
	"github.com/csheth/manuscripts/internal/citation"
)

// ErrNotFound is returned for ids with no stored record.
var ErrNotFound = errors.New("project not found")

// Store keeps one JSON file per project under <root>/projects and export
// output under <root>/exports.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates the projects and exports directories under root.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{root: root, logger: logger, now: time.Now}
	for _, dir := range []string{s.ProjectsDir(), s.ExportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("project: mkdir %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Store) Root() string        { return s.root }
func (s *Store) ProjectsDir() string { return filepath.Join(s.root, "projects") }
func (s *Store) ExportsDir() string  { return filepath.Join(s.root, "exports") }

func (s *Store) path(id string) string {
	return filepath.Join(s.ProjectsDir(), id+".json")
}

// Create validates name and stores a new empty project.
func (s *Store) Create(name string) (Project, error) {
	if err := ValidateName(name); err != nil {
		return Project{}, err
	}
	now := s.now()
	p := Project{
		ID:       citation.NewID(),
		Name:     strings.TrimSpace(name),
		Created:  now,
		Modified: now,
		Sources:  []citation.Source{},
	}
	if err := s.write(p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Save stamps the modification time and overwrites the stored record.
func (s *Store) Save(p *Project) error {
	p.Modified = s.now()
	return s.write(*p)
}

func (s *Store) write(p Project) error {
	if p.Sources == nil {
		p.Sources = []citation.Source{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode %s: %w", p.ID, err)
	}
	if err := atomicfile.Write(s.path(p.ID), data); err != nil {
		return fmt.Errorf("project: write %s: %w", p.ID, err)
	}
	return nil
}

// Load reads the project with id.
func (s *Store) Load(id string) (Project, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return Project{}, ErrNotFound
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("project: read %s: %w", id, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("project: decode %s: %w", id, err)
	}
	return p, nil
}

// Delete removes the project with id. Deleting a missing project is not
// an error.
func (s *Store) Delete(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("project: delete %s: %w", id, err)
	}
	return nil
}

// List returns every readable project, most recently modified first.
// Unreadable or malformed files are skipped.
func (s *Store) List() ([]Summary, error) {
	projects, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(projects))
	for i, p := range projects {
		out[i] = p.Summary()
	}
	return out, nil
}

// LoadAll is List with full records.
func (s *Store) LoadAll() ([]Project, error) {
	matches, err := filepath.Glob(filepath.Join(s.ProjectsDir(), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	projects := make([]Project, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("project: skip unreadable", slog.String("path", path), slog.Any("error", err))
			continue
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
			s.logger.Warn("project: skip malformed", slog.String("path", path), slog.Any("error", err))
			continue
		}
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Modified.After(projects[j].Modified)
	})
	return projects, nil
}

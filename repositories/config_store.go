package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pocha/restic-api/models"
)

// Document is the on-disk shape of config.json.
type Document struct {
	ResticVersion string                      `json:"restic_version,omitempty"`
	Locations     map[string]*models.Location `json:"locations"`
	Schedules     map[string]*models.Schedule `json:"schedules,omitempty"`
	RestoredPaths []string                    `json:"restored_paths,omitempty"`
}

// ConfigStore owns config.json: the location registry, the schedule map
// and restore bookkeeping. Every mutation is a read-modify-write of the
// whole file serialized behind a single mutex, so concurrent requests
// cannot lose updates to each other.
type ConfigStore struct {
	mu   sync.Mutex
	path string
}

func NewConfigStore(dataDir string) (*ConfigStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &ConfigStore{path: filepath.Join(dataDir, "config.json")}, nil
}

func (s *ConfigStore) load() (*Document, error) {
	doc := &Document{Locations: map[string]*models.Location{}}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc.Locations == nil {
		doc.Locations = map[string]*models.Location{}
	}
	for id, loc := range doc.Locations {
		loc.ID = id
	}
	return doc, nil
}

func (s *ConfigStore) save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}

// Document returns the whole persisted document.
func (s *ConfigStore) Document() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Merge overlays top-level keys from raw onto the persisted document,
// preserving unknown keys.
func (s *ConfigStore) Merge(raw map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := map[string]interface{}{}
	if data, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	for k, v := range raw {
		current[k] = v
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}

// Location looks up one registered location.
func (s *ConfigStore) Location(id string) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	loc, ok := doc.Locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

// PutLocation registers a repository under the given id. An existing
// entry with the same id is overwritten, matching how ids derived from
// the repository basename have always behaved.
func (s *ConfigStore) PutLocation(id, repoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Locations[id] = &models.Location{ID: id, RepoPath: repoPath, Paths: []string{}}
	return s.save(doc)
}

// AppendPath records a backed-up source path for the location. Already
// known paths are a no-op, so retried backups keep the registry clean.
// Returns whether the path was actually added.
func (s *ConfigStore) AppendPath(locationID, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	loc, ok := doc.Locations[locationID]
	if !ok {
		return false, ErrLocationNotFound
	}
	if loc.HasPath(path) {
		return false, nil
	}
	loc.Paths = append(loc.Paths, path)
	return true, s.save(doc)
}

// AppendRestoredPath records a restore target so the browse surface can
// validate requests against it.
func (s *ConfigStore) AppendRestoredPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, p := range doc.RestoredPaths {
		if p == path {
			return nil
		}
	}
	doc.RestoredPaths = append(doc.RestoredPaths, path)
	return s.save(doc)
}

// SetResticVersion records the probed restic version string.
func (s *ConfigStore) SetResticVersion(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.ResticVersion = version
	return s.save(doc)
}

// PutSchedule persists a schedule record.
func (s *ConfigStore) PutSchedule(schedule *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.Schedules == nil {
		doc.Schedules = map[string]*models.Schedule{}
	}
	doc.Schedules[schedule.ID] = schedule
	return s.save(doc)
}

// Schedules returns every schedule attached to the location, in no
// particular order.
func (s *ConfigStore) Schedules(locationID string) ([]*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	schedules := []*models.Schedule{}
	for _, sched := range doc.Schedules {
		if sched.LocationID == locationID {
			schedules = append(schedules, sched)
		}
	}
	return schedules, nil
}

// Schedule looks up one schedule belonging to the location.
func (s *ConfigStore) Schedule(locationID, scheduleID string) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	sched, ok := doc.Schedules[scheduleID]
	if !ok || sched.LocationID != locationID {
		return nil, ErrScheduleNotFound
	}
	return sched, nil
}

// DeleteSchedule removes a schedule record.
func (s *ConfigStore) DeleteSchedule(locationID, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	sched, ok := doc.Schedules[scheduleID]
	if !ok || sched.LocationID != locationID {
		return ErrScheduleNotFound
	}
	delete(doc.Schedules, scheduleID)
	return s.save(doc)
}

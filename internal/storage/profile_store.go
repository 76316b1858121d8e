package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"anonchat/internal/models"
	"anonchat/internal/providers"
	"anonchat/internal/structures"
)

// ProfileStore maps a fingerprint hash to one directory under
// <dir>/profiles holding profile.json. Existence of the directory IS
// the created-flag: a repeated create returns the stored record and
// discards the supplied bundle.
type ProfileStore struct {
	mu          sync.RWMutex
	dir         string
	defaultName string
	logger      providers.Logger
}

type ProfileStoreInterface interface {
	CreateOrGet(hash string, bundle map[string]any) (*models.Profile, error)
	Get(hash string) (*models.Profile, error)
	UpdateName(hash, name string) (*models.Profile, error)
	Count() int
	Export() (map[string]*models.Profile, error)
	Import(profiles map[string]*models.Profile) error
}

func NewProfileStore(conf *structures.Config, logger providers.Logger) (ProfileStoreInterface, error) {
	dir := filepath.Join(conf.Storage.Dir, "profiles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &ProfileStore{
		dir:         dir,
		defaultName: conf.Chat.DefaultName,
		logger:      logger,
	}, nil
}

func (ps *ProfileStore) profilePath(hash string) string {
	return filepath.Join(ps.dir, hash, "profile.json")
}

func (ps *ProfileStore) readProfile(hash string) (*models.Profile, error) {
	data, err := os.ReadFile(ps.profilePath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (ps *ProfileStore) writeProfile(hash string, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return writeFileAtomic(ps.profilePath(hash), data, 0644)
}

func (ps *ProfileStore) CreateOrGet(hash string, bundle map[string]any) (*models.Profile, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	profileDir := filepath.Join(ps.dir, hash)
	if _, err := os.Stat(profileDir); err == nil {
		return ps.readProfile(hash)
	}

	if err := os.MkdirAll(profileDir, 0755); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Name:        ps.defaultName,
		Created:     time.Now().Unix(),
		Fingerprint: bundle,
	}
	if err := ps.writeProfile(hash, profile); err != nil {
		return nil, err
	}

	ps.logger.Infof(providers.TypeApp, "Profile created for hash %s", hash)
	return profile, nil
}

func (ps *ProfileStore) Get(hash string) (*models.Profile, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.readProfile(hash)
}

func (ps *ProfileStore) UpdateName(hash, name string) (*models.Profile, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	profile, err := ps.readProfile(hash)
	if err != nil {
		return nil, err
	}

	profile.Name = name
	if err := ps.writeProfile(hash, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (ps *ProfileStore) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	return count
}

func (ps *ProfileStore) Export() (map[string]*models.Profile, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*models.Profile, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		profile, err := ps.readProfile(entry.Name())
		if err != nil {
			// A half-written directory is skipped, not fatal: the
			// snapshot should still capture everything readable.
			ps.logger.Warnf(providers.TypeApp, "Skipping unreadable profile %s: %s", entry.Name(), err)
			continue
		}
		profiles[entry.Name()] = profile
	}
	return profiles, nil
}

func (ps *ProfileStore) Import(profiles map[string]*models.Profile) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for hash, profile := range profiles {
		profileDir := filepath.Join(ps.dir, hash)
		if _, err := os.Stat(profileDir); err == nil {
			continue
		}
		if err := os.MkdirAll(profileDir, 0755); err != nil {
			return err
		}
		if err := ps.writeProfile(hash, profile); err != nil {
			return err
		}
	}
	return nil
}

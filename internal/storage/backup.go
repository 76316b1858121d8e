package storage

import (
	"os"

	json "github.com/goccy/go-json"

	"anonchat/internal/models"
	"anonchat/internal/providers"
	"anonchat/internal/storage/interfaces"
)

// BackupManager snapshots the complete durable state (all message
// pages plus all profiles) into one zstd-compressed JSON file, and can
// restore it into an empty data directory after a host move or loss.
// The live page and profile files remain the source of truth: a restore
// into a non-empty store is refused.
type BackupManager struct {
	messages   MessageStoreInterface
	profiles   ProfileStoreInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewBackupManager(compressor interfaces.CompressorInterface, messages MessageStoreInterface, profiles ProfileStoreInterface, logger providers.Logger) *BackupManager {
	return &BackupManager{
		messages:   messages,
		profiles:   profiles,
		compressor: compressor,
		logger:     logger,
	}
}

func (b *BackupManager) SaveToFile(fileName string) error {
	pages, err := b.messages.Export()
	if err != nil {
		return err
	}
	profiles, err := b.profiles.Export()
	if err != nil {
		return err
	}

	snapshot := &models.Snapshot{
		Version:  models.SnapshotVersion,
		Pages:    pages,
		Profiles: profiles,
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := b.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	return writeFileAtomic(fileName, data, 0644)
}

func (b *BackupManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if b.messages.PageCount() > 0 || b.profiles.Count() > 0 {
		b.logger.Infof(providers.TypeApp, "Store is not empty, skipping backup restore")
		return nil
	}

	decompressed, err := b.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(decompressed, &snapshot); err != nil {
		return err
	}

	if err := b.messages.Import(snapshot.Pages); err != nil {
		return err
	}
	if err := b.profiles.Import(snapshot.Profiles); err != nil {
		return err
	}

	b.logger.Infof(providers.TypeApp, "Restored %d pages and %d profiles from backup", len(snapshot.Pages), len(snapshot.Profiles))
	return nil
}

func (b *BackupManager) Close() {
	b.compressor.Close()
}

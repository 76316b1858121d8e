package storage

import (
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"

	"anonchat/internal/providers"
	"anonchat/internal/storage/interfaces"
	"anonchat/internal/structures"
)

// markerTTLFactor scales the send cooldown into the idle time after
// which a rate marker is eligible for pruning.
const markerTTLFactor = 100

type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	backup  *BackupManager
	limiter RateLimiterInterface
	cron    *gron.Cron
	running atomic.Bool
}

func (s *Scheduler) Init() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.cron = gron.New()

	if s.config.Backup.Enabled {
		s.cron.AddFunc(gron.Every(s.config.Backup.Interval), func() {
			if err := s.Persist(); err != nil {
				s.logger.Errorf(providers.TypeApp, "Error while persisting backup: %s", err)
			}
		})
	}

	markerTTL := s.config.Chat.Cooldown * markerTTLFactor
	s.cron.AddFunc(gron.Every(markerTTL), func() {
		removed, err := s.limiter.Prune(markerTTL)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while pruning rate markers: %s", err)
			return
		}
		if removed > 0 {
			s.logger.Infof(providers.TypeApp, "Pruned %d stale rate markers", removed)
		}
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if !s.config.Backup.Enabled {
		return nil
	}
	return s.backup.LoadFromFile(s.config.Backup.FilePath)
}

func (s *Scheduler) Persist() error {
	if !s.config.Backup.Enabled {
		return nil
	}

	start := time.Now()
	if err := s.backup.SaveToFile(s.config.Backup.FilePath); err != nil {
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	s.logger.Infof(providers.TypeApp, "Persisted backup to %s", s.config.Backup.FilePath)
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, backup *BackupManager, limiter RateLimiterInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		metrics: metrics,
		backup:  backup,
		limiter: limiter,
	}
}

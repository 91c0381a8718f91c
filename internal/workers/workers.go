package workers

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers registers the startup jobs enabled by cfg.
func NewWorkers(services *service.Services, cfg config.Workers, logger *logger.Logger) *Workers {
	return &Workers{workers: []Worker{
		NewMigrationWorker(services.MigrationService, cfg.SkipMigration, logger.GetChildLogger()),
	}}
}

func (w *Workers) Run(ctx context.Context) error {
	for i, worker := range w.workers {
		if err := worker.Run(ctx); err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
	}
	return nil
}

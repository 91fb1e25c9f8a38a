package main

import (
	"context"

	kafkaadapter "github.com/couchcryptid/hazard-tile-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

// publishManifest announces a run's outputs on Kafka when brokers are
// configured. Publishing is best effort; a broker outage never fails a run
// whose outputs are already on disk.
func publishManifest(ctx context.Context, m *catalog.Manifest) {
	if !cfg.EventsEnabled() || len(m.Entries) == 0 {
		return
	}

	w := kafkaadapter.NewWriter(cfg, logger)
	defer w.Close() //nolint:errcheck // best effort

	events := make([]domain.BuildEvent, 0, len(m.Entries))
	for _, e := range m.Entries {
		ev := domain.NewBuildEvent(m.RunID, m.Dataset, e.Step, e.Status)
		ev.OutputFile = e.File
		ev.SizeBytes = e.SizeBytes
		ev.SourceFiles = e.Sources
		events = append(events, ev)
	}
	if err := w.PublishBatch(ctx, events); err != nil {
		logger.Error("build event publish failed", "run_id", m.RunID, "error", err)
		return
	}
	logger.Info("build events published", "run_id", m.RunID, "events", len(events))
}

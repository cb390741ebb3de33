// Package bigquery exports scheduler run summaries for analytics.
package bigquery

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/execution"
	"google.golang.org/api/option"
)

// rowInserter is satisfied by *bigquery.Inserter
type rowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// RunExporter streams run summaries into a BigQuery table
type RunExporter struct {
	client   *bigquery.Client
	inserter rowInserter
	logger   *slog.Logger
}

var _ execution.RunExporter = (*RunExporter)(nil)

// NewRunExporter creates a client for cfg.ProjectID and targets cfg.Dataset.cfg.Table
func NewRunExporter(ctx context.Context, logger *slog.Logger, cfg config.BigQueryConfig) (*RunExporter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	logger.Info("BigQuery run export enabled",
		"project_id", cfg.ProjectID,
		"dataset", cfg.Dataset,
		"table", cfg.Table)

	return &RunExporter{
		client:   client,
		inserter: client.DatasetInProject(cfg.ProjectID, cfg.Dataset).Table(cfg.Table).Inserter(),
		logger:   logger,
	}, nil
}

// Export inserts one row per run keyed by anchor and type, so a retried insert is deduplicated
func (e *RunExporter) Export(ctx context.Context, run execution.RunSummary) error {
	row := &bigquery.StructSaver{
		Struct:   run,
		InsertID: run.Anchor.UTC().Format("20060102T150405Z") + "-" + run.Type,
	}
	if err := e.inserter.Put(ctx, row); err != nil {
		e.logger.Error("Failed to export scheduler run",
			"anchor", run.Anchor,
			"error", err)
		return fmt.Errorf("failed to export scheduler run: %w", err)
	}
	return nil
}

func (e *RunExporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

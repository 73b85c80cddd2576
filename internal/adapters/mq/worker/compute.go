package worker

import (
	"context"
	"sync/atomic"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
	"github.com/okian/edulog/pkg/logger"
	"github.com/okian/edulog/pkg/metrics"
)

// RecencyComputer computes rows with a single forward pass per partition.
// Unknown, when set, accumulates defects skipped for missing from the catalog.
type RecencyComputer struct {
	Catalog *model.Catalog
	Logger  logger.Logger
	Unknown *atomic.Int64
}

// Compute implements Computer.
func (c RecencyComputer) Compute(ctx context.Context, p *model.Partition) ([]model.RecencyRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, unknown := recency.Rows(p, c.Catalog)
	if unknown > 0 {
		if c.Unknown != nil {
			c.Unknown.Add(int64(unknown))
		}
		for i := 0; i < unknown; i++ {
			metrics.RecordUnknownDefect()
		}
		if c.Logger != nil {
			c.Logger.Warn(ctx, "defects missing from catalog skipped",
				logger.String("user", p.User), logger.Int("count", unknown))
		}
	}
	return rows, nil
}

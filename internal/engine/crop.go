package engine

import (
	"context"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/queryir"
	"github.com/roach88/cropq/internal/store"
)

// execCrop runs one crop leaf as a single filtered retrieval.
func (ev *evaluation) execCrop(ctx context.Context, q queryir.CropQuery, path string) (*geom.PointSet, error) {
	ev.stats.Crops++

	f := store.Filter{
		Region:      q.Region,
		Category:    q.Category,
		OneOfGroups: q.OneOfGroups,
	}

	if q.Proper {
		proper, err := ev.resolveProperGroups(ctx)
		if err != nil {
			return nil, err
		}
		if len(proper) == 0 {
			ev.logger.Debug("crop skipped: no proper groups", "path", path)
			return geom.NewPointSet(), nil
		}
		valid := ev.validRegion
		f.ProperIn = &valid
	}

	ev.stats.PointQueries++
	records, err := ev.snap.QueryPoints(ctx, f)
	if err != nil {
		return nil, wrapStoreError(ctx, ev.id, "crop at "+path, err)
	}

	result := geom.NewPointSet()
	for _, r := range records {
		result.Add(r.Point())
	}

	ev.logger.Debug("crop evaluated",
		"path", path,
		"region", q.Region.String(),
		"records", len(records),
		"points", result.Len(),
	)
	return result, nil
}

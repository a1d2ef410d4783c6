package engine

import (
	"context"

	"github.com/roach88/cropq/internal/store"
)

// resolveProperGroups returns the ids of groups whose every member lies in
// the valid region. Groups without members qualify.
//
// The set is computed on first use and reused for the rest of the
// evaluation. Crops use it to skip retrieval when it is empty; the store
// applies properness itself through Filter.ProperIn.
func (ev *evaluation) resolveProperGroups(ctx context.Context) ([]int64, error) {
	if ev.properResolved {
		return ev.proper, nil
	}

	ev.stats.GroupCountQueries++
	counts, err := ev.snap.GroupCounts(ctx, ev.validRegion)
	if err != nil {
		return nil, wrapStoreError(ctx, ev.id, "resolve proper groups", err)
	}

	proper := store.ProperGroupIDs(counts)

	ev.proper = proper
	ev.properResolved = true
	ev.stats.ProperGroups = len(proper)
	ev.logger.Debug("proper groups resolved",
		"valid_region", ev.validRegion.String(),
		"registered", len(counts),
		"proper", len(proper),
	)
	return proper, nil
}

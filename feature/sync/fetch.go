package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fleet-sync/core/provider"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// inventory is the remote side of one run.
type inventory struct {
	snapshots []provider.Snapshot
	// truncated is set when the page limit stopped the listing early.
	truncated bool
	// detailErrs holds the detail fetch failure of each snapshot left partial.
	detailErrs map[string]error
}

// fetchInventory pages through the remote inventory. Each page call is retried;
// a listing that still fails is fatal for the run.
func (s *Service) fetchInventory(ctx context.Context, p provider.Provider, since *time.Time, log *zap.Logger) (*inventory, error) {
	inv := &inventory{detailErrs: map[string]error{}}
	policy := s.config.RetryPolicy()

	cursor := ""
	for page := 0; ; page++ {
		if page == s.config.MaxPages {
			inv.truncated = true
			log.Warn("Page limit reached, remote inventory truncated",
				zap.Int("max_pages", s.config.MaxPages),
				zap.Int("snapshots", len(inv.snapshots)))
			break
		}

		var result *provider.Page
		err := provider.Retry(ctx, policy, func(ctx context.Context) error {
			var err error
			result, err = p.ListDevices(ctx, provider.ListOptions{Cursor: cursor, PageSize: s.config.PageSize, UpdatedSince: since})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list devices (page %d): %w", page+1, err)
		}

		inv.snapshots = append(inv.snapshots, result.Snapshots...)
		if result.NextCursor == "" {
			break
		}
		if result.NextCursor == cursor {
			return nil, fmt.Errorf("failed to list devices: provider %s repeated cursor %q", p.Name(), cursor)
		}
		cursor = result.NextCursor
	}

	s.enrich(ctx, p, inv, log)
	return inv, nil
}

// enrich fetches the detail of every partial snapshot with at most
// DetailWorkers calls in flight. A failed fetch leaves the snapshot partial.
func (s *Service) enrich(ctx context.Context, p provider.Provider, inv *inventory, log *zap.Logger) {
	policy := s.config.RetryPolicy()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.DetailWorkers)

	started := time.Now()
	fetched := 0
	for i := range inv.snapshots {
		if !inv.snapshots[i].Partial || inv.snapshots[i].ExternalID == "" {
			continue
		}
		fetched++
		g.Go(func() error {
			id := inv.snapshots[i].ExternalID
			var detail *provider.Snapshot
			err := provider.Retry(gctx, policy, func(ctx context.Context) error {
				var err error
				detail, err = p.GetDeviceStatus(ctx, id)
				return err
			})
			if err != nil {
				mu.Lock()
				inv.detailErrs[id] = err
				mu.Unlock()
				return nil
			}
			inv.snapshots[i] = inv.snapshots[i].Merge(detail)
			return nil
		})
	}
	_ = g.Wait()

	if fetched > 0 {
		log.Info("Fetched device details",
			zap.Int("requested", fetched),
			zap.Int("failed", len(inv.detailErrs)),
			zap.Duration("duration", time.Since(started)))
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marcin-skalski/ghtray/internal/avatar"
	"github.com/marcin-skalski/ghtray/internal/config"
	"github.com/marcin-skalski/ghtray/internal/github"
	"github.com/marcin-skalski/ghtray/internal/logging"
	"github.com/marcin-skalski/ghtray/internal/notify"
	"github.com/marcin-skalski/ghtray/internal/pr"
	"github.com/marcin-skalski/ghtray/internal/state"
	"github.com/marcin-skalski/ghtray/internal/tui"
	"github.com/robfig/cron/v3"
)

// AvatarFiller makes sure every login has a cached avatar. Failures are its own business.
type AvatarFiller interface {
	Fill(ctx context.Context, logins []string)
}

type statusChecker interface {
	CheckStatus(ctx context.Context) github.Status
}

type Daemon struct {
	cfg      *config.Config
	source   github.Source
	store    state.Store
	avatars  AvatarFiller
	cache    *avatar.Cache
	notifier *notify.Notifier
	logger   *slog.Logger

	shared  *Shared
	refresh chan struct{}
	now     func() time.Time

	// cycleMu serializes cycles; viewer is only touched under it.
	cycleMu sync.Mutex
	viewer  string
}

// New wires a poller around a private copy of cfg. avatars, cache and notifier may be nil.
func New(cfg *config.Config, source github.Source, store state.Store, avatars AvatarFiller,
	cache *avatar.Cache, notifier *notify.Notifier, logger *slog.Logger,
) *Daemon {
	return &Daemon{
		cfg:      cfg.Clone(),
		source:   source,
		store:    store,
		avatars:  avatars,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		shared:   &Shared{},
		refresh:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

func (d *Daemon) Shared() *Shared { return d.shared }

// Run polls once immediately and then every poll interval until ctx is done.
// Refresh requests run an extra cycle; cycles never overlap.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("poller started",
		"poll_interval", d.cfg.PollInterval,
		"merged_window_days", d.cfg.MergedWindowDays,
		"demo", d.cfg.Demo)

	if sc, ok := d.source.(statusChecker); ok {
		st := sc.CheckStatus(ctx)
		if st.Kind != github.StatusOK {
			d.logger.Warn("gh status check failed", "hint", st.Hint(), "detail", st.Detail)
			d.shared.setHint(st.Hint())
		}
	}

	d.cycle(ctx)

	cl := logging.NewCronLogger(d.logger)
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(cron.Every(d.cfg.PollInterval), cron.FuncJob(func() { d.cycle(ctx) }))
	c.Start()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down, waiting for running cycle")
			<-c.Stop().Done()
			d.logger.Info("poller stopped")
			return nil
		case <-d.refresh:
			d.logger.Debug("manual refresh")
			d.cycle(ctx)
		}
	}
}

// Refresh asks Run for an immediate cycle. Requests made while one is pending are merged.
func (d *Daemon) Refresh() {
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

func (d *Daemon) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
		d.logger.Error("poll cycle failed", "err", err)
	}
}

// RunOnce performs one fetch, classify, filter, diff, notify and persist cycle.
// On a fetch failure the previous items stay in place and the error is recorded.
func (d *Daemon) RunOnce(ctx context.Context) error {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	d.shared.setFetching(true)
	defer d.shared.setFetching(false)

	viewer, err := d.lookupViewer(ctx)
	if err != nil {
		d.shared.setError(displayError(err))
		return fmt.Errorf("viewer lookup: %w", err)
	}

	now := d.now()
	res, err := d.source.Fetch(ctx, github.Query{
		Viewer:      viewer,
		MergedSince: github.MergedSince(now, d.cfg.MergedWindowDays),
	})
	if err != nil {
		d.shared.setError(displayError(err))
		return fmt.Errorf("fetch pull requests: %w", err)
	}

	all := pr.Classify(res)
	items := pr.Filter(all, d.cfg.BlockedSet())

	if d.avatars != nil {
		d.avatars.Fill(ctx, pr.Authors(items))
	}

	prev, err := d.store.Load(ctx)
	if err != nil {
		d.logger.Warn("load previous snapshot failed, starting fresh", "err", err)
		prev = state.Empty()
	}

	transitions := pr.Diff(prev.Items, items)
	notified := 0
	if d.notifier != nil && prev.LastFetch != nil && d.cfg.NotificationsEnabled() {
		notified = d.notifier.Notify(ctx, transitions)
	}

	if err := d.store.Save(ctx, state.NewSnapshot(items, now)); err != nil {
		d.logger.Error("save snapshot failed", "err", err)
	}

	d.shared.setResult(viewer, items, all, now)

	d.logger.Info("poll cycle done",
		"items", len(items),
		"filtered_out", len(all)-len(items),
		"transitions", len(transitions),
		"notified", notified)
	return nil
}

func (d *Daemon) lookupViewer(ctx context.Context) (string, error) {
	if d.viewer != "" {
		return d.viewer, nil
	}
	v, err := d.source.Viewer(ctx)
	if err != nil {
		return "", err
	}
	d.viewer = v
	return v, nil
}

func displayError(err error) string {
	if errors.Is(err, github.ErrNotAuthenticated) {
		return github.ErrNotAuthenticated.Error()
	}
	return err.Error()
}

// GetSnapshot renders the shared state for the terminal UI.
func (d *Daemon) GetSnapshot() tui.Snapshot {
	v := d.shared.View()

	snap := tui.Snapshot{
		Timestamp: d.now(),
		Viewer:    v.Viewer,
		LastFetch: v.LastFetch,
		Error:     v.LastError,
		Hint:      v.Hint,
		Demo:      d.cfg.Demo,
		Fetching:  v.Fetching,
		Total:     len(v.Items),
	}

	byBucket := make(map[pr.Bucket][]pr.Item)
	for _, it := range v.Items {
		byBucket[it.Bucket] = append(byBucket[it.Bucket], it)
		if d.cfg.CountsForBadge(it.Bucket) {
			snap.Badge++
		}
	}

	for _, b := range d.cfg.OrderedBuckets() {
		if !d.cfg.IsBucketVisible(b) {
			continue
		}
		bucketItems := byBucket[b]
		sort.SliceStable(bucketItems, func(i, j int) bool {
			return bucketItems[i].LastActivity().After(bucketItems[j].LastActivity())
		})
		bs := tui.BucketState{Bucket: b, Items: make([]tui.ItemState, 0, len(bucketItems))}
		for _, it := range bucketItems {
			bs.Items = append(bs.Items, d.itemState(it))
		}
		snap.Buckets = append(snap.Buckets, bs)
	}

	for _, org := range pr.RepoTree(v.All) {
		node := tui.OrgState{Owner: org.Owner}
		for _, r := range org.Repos {
			node.Repos = append(node.Repos, tui.RepoState{
				FullName: r.FullName,
				Name:     r.Name,
				Count:    r.Count,
				Blocked:  !d.cfg.IsRepoAllowed(r.FullName),
			})
		}
		snap.Orgs = append(snap.Orgs, node)
	}

	return snap
}

func (d *Daemon) itemState(it pr.Item) tui.ItemState {
	s := tui.ItemState{
		Number:   it.Number,
		Title:    it.Title,
		URL:      it.URL,
		Repo:     it.ShortRepo(),
		Author:   it.Author,
		CIStatus: it.CIStatus,
		Activity: it.LastActivity(),
	}
	if it.CreatedAt != nil {
		s.Created = *it.CreatedAt
	}
	if d.cache != nil {
		if p, ok := d.cache.Lookup(it.Author); ok {
			s.AvatarPath = p
		}
	}
	return s
}

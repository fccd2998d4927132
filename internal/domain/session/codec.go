package session

import (
	"context"
	"sort"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultLookupConcurrency bounds concurrent catalog lookups per tab
const DefaultLookupConcurrency = 8

// Codec converts between the view and SessionState
type Codec struct {
	logger      *logging.Logger
	concurrency int
	now         func() time.Time
}

// NewCodec creates a codec. concurrency <= 0 uses DefaultLookupConcurrency.
func NewCodec(logger *logging.Logger, concurrency int) *Codec {
	if concurrency <= 0 {
		concurrency = DefaultLookupConcurrency
	}
	return &Codec{
		logger:      logger.OrNop().Component("codec"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Extract reads every kind from source into a new state. Each kind gets
// exactly types.TabCount tabs numbered 1..TabCount; tabs the source does
// not report are empty and tabs outside that range are ignored.
func (c *Codec) Extract(source ViewSource) *types.SessionState {
	state := types.NewSessionState(c.now())
	for _, kind := range types.Kinds() {
		state.SetTabs(kind, extractKind(source, kind))
	}
	return state
}

func extractKind(source ViewSource, kind types.Kind) []types.TabAssignment {
	byNumber := make(map[int]types.TabAssignment, types.TabCount)
	for _, t := range source.GetAssignments(kind) {
		if !types.ValidTab(t.TabNumber) {
			continue
		}
		t = t.Clone()
		t.Kind = kind
		byNumber[t.TabNumber] = t
	}

	tabs := make([]types.TabAssignment, 0, types.TabCount)
	for n := 1; n <= types.TabCount; n++ {
		t, ok := byNumber[n]
		if !ok {
			t = types.EmptyTab(kind, n)
		}
		if kind.Ordered() && t.Items == nil {
			t.Items = []string{}
		}
		if !kind.Ordered() && t.Slots == nil {
			t.Slots = map[string]string{}
		}
		tabs = append(tabs, t)
	}
	return tabs
}

// DroppedItem records an assignment removed because its item is gone
type DroppedItem struct {
	Tab    int    `json:"tab"`
	Slot   string `json:"slot,omitempty"`
	ItemID string `json:"item_id"`
}

// ApplyReport summarizes restoring one kind
type ApplyReport struct {
	Kind         types.Kind    `json:"kind"`
	AppliedTabs  []int         `json:"applied_tabs"`
	SkippedTabs  []int         `json:"skipped_tabs,omitempty"`
	Items        int           `json:"items"`
	Dropped      []DroppedItem `json:"dropped,omitempty"`
	LookupErrors int           `json:"lookup_errors"`
}

type lookupResult struct {
	found bool
	err   error
}

// Apply validates the kind's tabs against catalog and writes them to sink
// in ascending tab order. Items the catalog reports absent are dropped
// with a warning. Items whose lookup fails are kept, so an unreachable
// catalog never erases assignments. Tabs whose view element does not
// exist yet are skipped.
func (c *Codec) Apply(ctx context.Context, kind types.Kind, state *types.SessionState, sink ViewSink, catalog Catalog) (ApplyReport, error) {
	report := ApplyReport{Kind: kind, AppliedTabs: []int{}}
	log := c.logger.With(zap.String("kind", string(kind)))

	var applied []types.TabAssignment
	for _, tab := range state.Tabs(kind) {
		if !sink.HasTab(kind, tab.TabNumber) {
			report.SkippedTabs = append(report.SkippedTabs, tab.TabNumber)
			log.Debug("Tab not mounted, skipping", zap.Int("tab", tab.TabNumber))
			continue
		}

		results, err := c.lookupAll(ctx, catalog, tabItemIDs(tab))
		if err != nil {
			return report, err
		}

		valid := filterTab(tab, results, &report)
		for _, d := range report.Dropped {
			if d.Tab == tab.TabNumber {
				log.Warn("Dropping assignment for missing catalog item",
					zap.Int("tab", d.Tab), zap.String("slot", d.Slot), zap.String("item_id", d.ItemID))
			}
		}
		for id, r := range results {
			if r.err != nil {
				log.Warn("Catalog lookup failed, keeping assignment",
					zap.Int("tab", tab.TabNumber), zap.String("item_id", id), zap.Error(r.err))
			}
		}

		applied = append(applied, valid)
		report.AppliedTabs = append(report.AppliedTabs, tab.TabNumber)
		report.Items += valid.Len()
	}

	if len(applied) == 0 {
		return report, nil
	}
	if err := sink.ApplyAssignments(kind, applied); err != nil {
		return report, err
	}
	return report, nil
}

// tabItemIDs returns the distinct item IDs of a tab in a stable order
func tabItemIDs(tab types.TabAssignment) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if tab.Kind.Ordered() {
		for _, id := range tab.Items {
			add(id)
		}
		return ids
	}
	keys := sortedKeys(tab.Slots)
	for _, k := range keys {
		add(tab.Slots[k])
	}
	return ids
}

// lookupAll resolves ids with bounded concurrency. Only cancellation of
// ctx is an error; per-item failures are carried in the results.
func (c *Codec) lookupAll(ctx context.Context, catalog Catalog, ids []string) (map[string]lookupResult, error) {
	results := make([]lookupResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, found, err := catalog.Lookup(gctx, id)
			results[i] = lookupResult{found: found, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]lookupResult, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

// filterTab drops items the catalog reported absent, preserving order
func filterTab(tab types.TabAssignment, results map[string]lookupResult, report *ApplyReport) types.TabAssignment {
	out := types.TabAssignment{Kind: tab.Kind, TabNumber: tab.TabNumber, TabName: tab.TabName}
	keep := func(id string) bool {
		r := results[id]
		if r.err != nil {
			report.LookupErrors++
			return true
		}
		return r.found
	}

	if tab.Kind.Ordered() {
		out.Items = make([]string, 0, len(tab.Items))
		for _, id := range tab.Items {
			if keep(id) {
				out.Items = append(out.Items, id)
			} else {
				report.Dropped = append(report.Dropped, DroppedItem{Tab: tab.TabNumber, ItemID: id})
			}
		}
		return out
	}

	out.Slots = make(map[string]string, len(tab.Slots))
	for _, slot := range sortedKeys(tab.Slots) {
		id := tab.Slots[slot]
		if keep(id) {
			out.Slots[slot] = id
		} else {
			report.Dropped = append(report.Dropped, DroppedItem{Tab: tab.TabNumber, Slot: slot, ItemID: id})
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

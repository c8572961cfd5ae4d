// Package pipeline drives a message through its whole life: parse the raw
// text into an order, hold it as a draft until the operator confirms, then
// claim a ledger row and write it out. One Processor serves all senders.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderline/internal/extract"
	"orderline/internal/journal"
	"orderline/internal/ledger"
	"orderline/internal/llm"
	"orderline/internal/metrics"
	"orderline/internal/order"
	"orderline/internal/reconcile"
)

// Draft is the pipeline's view of one in-flight order.
type Draft struct {
	ID     string
	Sender string
	State  order.State
	Order  *order.Order
	Row    int // ledger row once persisted
}

// Options configures a Processor. Grid is required; everything else
// degrades gracefully when absent.
type Options struct {
	Client   llm.Client // nil: deterministic parser only
	Grid     ledger.Grid
	Journal  *journal.Journal // nil: no local record
	Metrics  *metrics.Registry
	Log      *zap.Logger
	ScanRows int
}

// Processor owns the draft registry and the ledger write path.
type Processor struct {
	client     llm.Client
	reconciler *reconcile.Reconciler
	grid       ledger.Grid
	allocator  *ledger.Allocator
	journal    *journal.Journal
	metrics    *metrics.Registry
	log        *zap.Logger

	// mu serializes row allocation and the write that claims the row, so
	// two confirmations can never land on the same row. It also guards
	// pending.
	mu      sync.Mutex
	pending map[string]*Draft // keyed by sender
}

// New builds a Processor from the given options.
func New(opts Options) *Processor {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewRegistry()
	}
	scanRows := opts.ScanRows
	if scanRows <= 0 {
		scanRows = ledger.DefaultScanRows
	}
	alloc := ledger.NewAllocator(opts.Grid, scanRows, log)
	alloc.OnFallback = m.RowFallbacks.Inc
	return &Processor{
		client:     opts.Client,
		reconciler: reconcile.New(log),
		grid:       opts.Grid,
		allocator:  alloc,
		journal:    opts.Journal,
		metrics:    m,
		log:        log,
		pending:    make(map[string]*Draft),
	}
}

// Handle parses one raw message from sender into a draft order. A message
// with no recognizable items is a terminal parse failure; anything else
// replaces the sender's previous draft, if any.
func (p *Processor) Handle(ctx context.Context, sender, message string) (*Draft, error) {
	var o *order.Order
	if p.client != nil {
		completion, err := p.client.Complete(ctx, llm.BuildPrompt(message))
		if err != nil {
			p.log.Warn("completion failed, falling back to deterministic parser",
				zap.String("sender", sender), zap.Error(err))
			p.metrics.LLMFallbacks.Inc()
			completion = ""
		}
		o = p.reconciler.Reconcile(completion, message)
	} else {
		o = extract.Extract(message)
	}

	d := &Draft{
		ID:     uuid.NewString(),
		Sender: sender,
		Order:  o,
	}

	if len(o.Items) == 0 {
		d.State = order.StateParseFailed
		p.metrics.ParseFailed.Inc()
		p.record(d.ID, sender, order.StateParseFailed, message, nil)
		p.log.Info("no items recognized", zap.String("sender", sender))
		return d, nil
	}

	d.State = order.StateDrafted
	p.metrics.MessagesParsed.Inc()
	p.record(d.ID, sender, order.StateDrafted, message, o)

	p.mu.Lock()
	if prev, ok := p.pending[sender]; ok {
		p.log.Info("replacing earlier draft",
			zap.String("sender", sender), zap.String("draft_id", prev.ID))
		p.setState(prev.ID, order.StateCancelled, 0)
	}
	p.pending[sender] = d
	p.mu.Unlock()

	p.log.Info("order drafted",
		zap.String("sender", sender),
		zap.String("draft_id", d.ID),
		zap.Int("items", len(o.Items)),
		zap.Int("grand_total", o.GrandTotal()))
	return d, nil
}

// Confirm persists the sender's pending draft to the ledger. On write
// failure the draft stays pending so the operator can retry.
func (p *Processor) Confirm(ctx context.Context, sender string) (*Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.pending[sender]
	if !ok {
		return nil, fmt.Errorf("no pending order for %s", sender)
	}

	row := p.allocator.NextRow(ctx)
	ws := ledger.BuildWrites(d.Order, row, time.Now())

	start := time.Now()
	if err := ledger.Commit(ctx, p.grid, ws); err != nil {
		p.metrics.CommitFailures.Inc()
		p.log.Error("ledger commit failed, draft retained",
			zap.String("sender", sender),
			zap.String("draft_id", d.ID),
			zap.Int("row", row),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist order for %s: %w", sender, err)
	}
	p.metrics.CommitLatency.Observe(time.Since(start).Seconds())
	p.metrics.OrdersPersisted.Inc()

	d.State = order.StatePersisted
	d.Row = row
	delete(p.pending, sender)
	p.setState(d.ID, order.StatePersisted, row)

	p.log.Info("order persisted",
		zap.String("sender", sender),
		zap.String("draft_id", d.ID),
		zap.Int("row", row))
	return d, nil
}

// Cancel discards the sender's pending draft.
func (p *Processor) Cancel(sender string) (*Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.pending[sender]
	if !ok {
		return nil, fmt.Errorf("no pending order for %s", sender)
	}
	delete(p.pending, sender)
	d.State = order.StateCancelled
	p.metrics.OrdersCancelled.Inc()
	p.setState(d.ID, order.StateCancelled, 0)

	p.log.Info("order cancelled",
		zap.String("sender", sender), zap.String("draft_id", d.ID))
	return d, nil
}

// Pending returns the sender's current draft, if any.
func (p *Processor) Pending(sender string) (*Draft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.pending[sender]
	return d, ok
}

func (p *Processor) record(id, sender string, state order.State, raw string, o *order.Order) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Record(id, sender, state, raw, o); err != nil {
		p.log.Warn("journal record failed", zap.String("draft_id", id), zap.Error(err))
	}
}

func (p *Processor) setState(id string, state order.State, row int) {
	if p.journal == nil {
		return
	}
	if err := p.journal.SetState(id, state, row); err != nil {
		p.log.Warn("journal update failed", zap.String("draft_id", id), zap.Error(err))
	}
}

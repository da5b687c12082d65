package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/bids"
	"github.com/hetulpatel/lotbidder/internal/ledger"
	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/resolver"
)

// AddressResolver maps addresses to cities; it never fails.
type AddressResolver interface {
	Resolve(ctx context.Context, addresses []string) map[string]bidding.Resolution
}

// ProcessedStore persists the processed-id set.
type ProcessedStore interface {
	Load(ctx context.Context) (ledger.Set, error)
	Save(ctx context.Context, set ledger.Set) error
}

// BatchSink receives the payloads of a cycle before the ledger is saved.
type BatchSink interface {
	WriteBatch(ctx context.Context, cycleID string, payloads []bids.Payload) error
}

// Publisher forwards persisted payloads; failures are logged only.
type Publisher interface {
	Publish(ctx context.Context, cycleID string, payloads []bids.Payload) error
}

// Deps wires a Processor. Publisher and Logger are optional.
type Deps struct {
	Source    bidding.LotSource
	Resolver  AddressResolver
	Builder   bids.Builder
	Ledger    ProcessedStore
	Sink      BatchSink
	Publisher Publisher
	Logger    logging.Logger
}

// Processor runs polling cycles that turn open lots into bid payloads,
// never emitting a lot id twice.
type Processor struct {
	source    bidding.LotSource
	resolver  AddressResolver
	builder   bids.Builder
	ledger    ProcessedStore
	sink      BatchSink
	publisher Publisher
	log       logging.Logger
	filter    bidding.LotFilter
	newID     func() string

	mu        sync.Mutex
	processed ledger.Set
	trigger   chan struct{}
}

func New(deps Deps) *Processor {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Processor{
		source:    deps.Source,
		resolver:  deps.Resolver,
		builder:   deps.Builder,
		ledger:    deps.Ledger,
		sink:      deps.Sink,
		publisher: deps.Publisher,
		log:       log,
		filter:    bidding.OpenLotsFilter(),
		newID:     uuid.NewString,
		trigger:   make(chan struct{}, 1),
	}
}

// CycleResult summarizes one polling cycle.
type CycleResult struct {
	CycleID  string
	Fetched  int
	Skipped  int
	Failed   int
	Payloads []bids.Payload
}

// Processed returns the processed ids as of the last cycle, sorted.
func (p *Processor) Processed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.processed == nil {
		return nil
	}
	return p.processed.Sorted()
}

// RunCycle fetches, filters, transforms and persists one batch. Cycles are
// serialized. Nothing is persisted for an empty batch; a failed write
// forgets the cycle's ids so the next cycle retries them.
func (p *Processor) RunCycle(ctx context.Context) (CycleResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := CycleResult{CycleID: p.newID()}
	if err := p.reloadLedger(ctx); err != nil {
		return res, err
	}

	lots, err := p.source.FetchLots(ctx, p.filter)
	if err != nil {
		p.log.Errorf("[processor] cycle=%s fetch from %s failed, skipping cycle: %v", res.CycleID, p.source.Name(), err)
		return res, fmt.Errorf("fetch lots: %w", err)
	}
	res.Fetched = len(lots)
	p.log.Infof("[processor] cycle=%s fetched %d lots", res.CycleID, len(lots))

	var added []string
	for _, lot := range lots {
		if err := ctx.Err(); err != nil {
			p.forget(added)
			return CycleResult{CycleID: res.CycleID, Fetched: res.Fetched}, fmt.Errorf("cycle aborted: %w", err)
		}

		id := string(lot.ID)
		if p.processed.Has(id) {
			p.log.Infof("[processor] cycle=%s lot %s already processed, skipping", res.CycleID, id)
			res.Skipped++
			continue
		}

		payload, err := p.transform(ctx, lot)
		if err != nil {
			p.log.Errorf("[processor] cycle=%s lot %q skipped: %v", res.CycleID, id, err)
			res.Failed++
			continue
		}
		// a cancelled lookup degrades to fallback cities; never emit those
		if err := ctx.Err(); err != nil {
			p.forget(added)
			return CycleResult{CycleID: res.CycleID, Fetched: res.Fetched}, fmt.Errorf("cycle aborted: %w", err)
		}

		res.Payloads = append(res.Payloads, payload)
		p.processed.Add(id)
		added = append(added, id)
		p.log.Infof("[processor] cycle=%s lot %s transformed", res.CycleID, id)
	}

	if len(res.Payloads) == 0 {
		p.log.Infof("[processor] cycle=%s no new lots", res.CycleID)
		return res, nil
	}

	if err := p.persist(ctx, res.CycleID, res.Payloads); err != nil {
		p.forget(added)
		return CycleResult{CycleID: res.CycleID, Fetched: res.Fetched, Skipped: res.Skipped, Failed: res.Failed}, err
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, res.CycleID, res.Payloads); err != nil {
			p.log.Errorf("[processor] cycle=%s publish error: %v", res.CycleID, err)
		}
	}
	return res, nil
}

// reloadLedger picks up edits made by other processes, such as an operator
// forgetting an id, before the cycle filters against the set.
func (p *Processor) reloadLedger(ctx context.Context) error {
	set, err := p.ledger.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	p.processed = set
	return nil
}

func (p *Processor) transform(ctx context.Context, lot bidding.Lot) (bids.Payload, error) {
	if lot.DecodeErr != nil {
		return bids.Payload{}, lot.DecodeErr
	}
	id := string(lot.ID)
	if id == "" {
		return bids.Payload{}, bidding.ErrMissingLotID
	}
	p.warnNonNumeric(id, "start price", lot.ProcedureInfo.StartPrice)
	p.warnNonNumeric(id, "step", lot.ProcedureInfo.Step)

	waypoints := lot.Waypoints()
	addresses := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		addresses = append(addresses, wp.Address)
	}
	resolver.Apply(waypoints, p.resolver.Resolve(ctx, addresses))

	route := bids.BuildRoute(waypoints, lot.CargoWeight(), lot.CargoVolume())
	points := bids.BuildIntermediatePoints(bids.Intermediate(waypoints))
	return p.builder.Build(id, lot.ProcedureInfo.StartPrice, lot.ProcedureInfo.Step, route, points), nil
}

func (p *Processor) warnNonNumeric(id, field string, price bidding.Price) {
	if raw := price.Raw(); raw != "" {
		p.log.Warnf("[processor] lot %s %s %q is not numeric, passing it through", id, field, raw)
	}
}

func (p *Processor) persist(ctx context.Context, cycleID string, payloads []bids.Payload) error {
	if err := p.sink.WriteBatch(ctx, cycleID, payloads); err != nil {
		p.log.Errorf("[processor] cycle=%s write batch failed: %v", cycleID, err)
		return fmt.Errorf("write batch: %w", err)
	}
	if err := p.ledger.Save(ctx, p.processed); err != nil {
		p.log.Errorf("[processor] cycle=%s save ledger failed: %v", cycleID, err)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (p *Processor) forget(ids []string) {
	for _, id := range ids {
		p.processed.Remove(id)
	}
}

package processor

import (
	"context"
	"time"
)

// Run executes a cycle immediately and then every interval, or sooner when
// Trigger is called. A cycle in flight when ctx is cancelled runs to
// completion under cycleTimeout; Run then returns.
func (p *Processor) Run(ctx context.Context, interval, cycleTimeout time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.runOnce(ctx, cycleTimeout)
		p.log.Infof("[processor] waiting %s until next cycle", interval)

		select {
		case <-ctx.Done():
			p.log.Infof("[processor] stopping")
			return
		case <-ticker.C:
		case <-p.trigger:
			p.log.Infof("[processor] manual trigger")
		}
	}
}

// Trigger requests an extra cycle; repeated calls before it starts coalesce.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Processor) runOnce(ctx context.Context, timeout time.Duration) {
	if ctx.Err() != nil {
		return
	}
	cycleCtx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(cycleCtx, timeout)
		defer cancel()
	}
	res, err := p.RunCycle(cycleCtx)
	if err != nil {
		p.log.Errorf("[processor] cycle=%s failed: %v", res.CycleID, err)
		return
	}
	p.log.Infof("[processor] cycle=%s done fetched=%d new=%d skipped=%d failed=%d",
		res.CycleID, res.Fetched, len(res.Payloads), res.Skipped, res.Failed)
}

package interaction

import "context"

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Blur
	Activate
)

// InputEvent is one abstract pointer or focus event. RuleID names the
// target block for PointerDown and Activate.
type InputEvent struct {
	Kind   EventKind
	RuleID int64
	X      float64
	Y      float64
}

// Run drives the machine from events until the channel closes and every
// in-flight commit has completed, or ctx is done. Persists run concurrently
// with further input; their results are applied in completion order.
func (m *Machine) Run(ctx context.Context, events <-chan InputEvent) <-chan CommitResult {
	out := make(chan CommitResult)
	go func() {
		defer close(out)
		done := make(chan CommitResult)
		pending := 0

		emit := func(res CommitResult) bool {
			select {
			case out <- res:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// settle starts the persist for a released drag, or reports why
		// there is nothing to persist.
		settle := func(p Pending, res CommitResult, ok bool) bool {
			if !ok {
				if res.Outcome == Abandoned && res.RuleID != 0 {
					return emit(res)
				}
				return true
			}
			pending++
			go func(p Pending) {
				res := m.Persist(ctx, p)
				select {
				case done <- res:
				case <-ctx.Done():
				}
			}(p)
			return true
		}

		for events != nil || pending > 0 {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				switch ev.Kind {
				case PointerDown:
					prior, err := m.PointerDown(ev.RuleID, ev.X, ev.Y)
					if err != nil {
						continue
					}
					if !settle(prior.Pending, prior.Result, prior.OK) {
						return
					}
				case PointerMove:
					m.PointerMove(ev.X, ev.Y)
				case PointerUp, Blur:
					if !settle(m.Release()) {
						return
					}
				case Activate:
					if d, ok := m.Activate(ev.RuleID); ok && m.cfg.OnActivate != nil {
						m.cfg.OnActivate(d)
					}
				}
			case res := <-done:
				pending--
				m.Complete(res)
				if !emit(res) {
					return
				}
			}
		}
	}()
	return out
}

// Package timelock implements governed values whose changes only become live
// after a delay.
package timelock

// Pending is a scheduled change of a governed value.
type Pending[T any] struct {
	Value       T     `json:"value"`
	EffectiveAt int64 `json:"effective_at"`
}

// Param holds the current value of a governed parameter and at most one
// pending change.  Reading is a pure function of (Current, Pending, now); the
// pending value is only folded into Current by the next Set.
type Param[T any] struct {
	Current T           `json:"current"`
	Pending *Pending[T] `json:"pending,omitempty"`
}

// New returns a parameter whose value is live immediately.
func New[T any](v T) Param[T] {
	return Param[T]{Current: v}
}

// Get returns the value live at now.
func (p Param[T]) Get(now int64) T {
	if p.Pending != nil && now >= p.Pending.EffectiveAt {
		return p.Pending.Value
	}
	return p.Current
}

// Resolve returns a copy of p with an effective pending change committed.
func (p Param[T]) Resolve(now int64) Param[T] {
	if p.Pending != nil && now >= p.Pending.EffectiveAt {
		return Param[T]{Current: p.Pending.Value}
	}
	return p
}

// PendingAt returns the change that is still waiting at now, if any.
func (p Param[T]) PendingAt(now int64) (Pending[T], bool) {
	if p.Pending == nil || now >= p.Pending.EffectiveAt {
		return Pending[T]{}, false
	}
	return *p.Pending, true
}

// Set schedules v to become live at now+delay.  An unresolved pending change
// is discarded.  A zero delay makes v live at now.
func (p Param[T]) Set(v T, now int64, delay int64) Param[T] {
	if delay < 0 {
		delay = 0
	}
	resolved := p.Resolve(now)
	resolved.Pending = &Pending[T]{Value: v, EffectiveAt: now + delay}
	return resolved
}

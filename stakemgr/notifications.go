package stakemgr

import "github.com/joltify-finance/token-staking/model"

// EventSink receives every committed ledger event, in commit order.  Sinks are
// called with the ledger lock held and must not call back into the ledger.
type EventSink interface {
	HandleEvent(ev *model.Event)
}

// EventSinkFunc adapts a plain function to an EventSink.
type EventSinkFunc func(ev *model.Event)

func (f EventSinkFunc) HandleEvent(ev *model.Event) {
	f(ev)
}

// Subscribe adds a sink that receives every event committed from now on.
func (l *Ledger) Subscribe(sink EventSink) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.sinks = append(l.sinks, sink)
}

func (l *Ledger) notify(events []*model.Event) {
	for _, ev := range events {
		log.Debugf("Ledger event %v from %v", ev.Type, ev.Sender().Hex())
		for _, sink := range l.sinks {
			sink.HandleEvent(ev)
		}
	}
}

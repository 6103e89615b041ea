package stakingjson

import (
	"github.com/joltify-finance/token-staking/model"
)

const (
	// EventNtfnMethod is the method of the notification sent to websocket
	// clients for every ledger event.
	EventNtfnMethod = "staking.event"
)

// EventNtfn carries one ledger event.
type EventNtfn struct {
	Event model.Event `json:"event"`
}

func NewEventNtfn(ev *model.Event) *EventNtfn {
	return &EventNtfn{Event: *ev}
}

func init() {
	// The commands in this file are only usable by websockets and are
	// notifications.
	flags := UFWebsocketOnly | UFNotification

	MustRegisterCmd(EventNtfnMethod, (*EventNtfn)(nil), flags)
}

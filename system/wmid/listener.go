package wmid

import (
	"context"
	"fmt"

	"github.com/bi-zone/wmi"
)

type wmiEvent struct {
	EventID      uint32
	InstanceName string
	TIME_CREATED uint64
}

// NewEventListener will subscribe to WMID firmware events and forward
// the event ID to the channel. Firmware fires these when a control
// changes behind our back (e.g. vendor tooling or a hardware switch).
func NewEventListener(haltCtx context.Context, eventCh chan uint32) error {
	ch := make(chan wmiEvent)
	q, err := wmi.NewNotificationQuery(ch, `SELECT * FROM AcerWmiEvent`)
	if err != nil {
		return fmt.Errorf("Failed to create NotificationQuery; %s", err)
	}
	q.SetConnectServerArgs(nil, `root\wmi`)

	go func() {
		q.StartNotifications()
	}()

	go func() {
		for {
			select {
			case ev := <-ch:
				eventCh <- ev.EventID
			case <-haltCtx.Done():
				q.Stop()
				return
			}
		}
	}()

	return nil
}

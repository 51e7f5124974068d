package background

import (
	"context"
	"log"
	"time"

	"github.com/tenseventyseven/AcerManager/util"
)

// Notifier is the sink for user-facing notifications. For now they end
// up in the log only.
type Notifier struct {
	C chan util.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{
		C: make(chan util.Notification, 10),
	}
}

func (n *Notifier) String() string {
	return "Notifier"
}

func (n *Notifier) Serve(haltCtx context.Context) error {
	log.Println("[notifier] starting notify loop")
	for {
		select {
		case msg := <-n.C:
			if msg.Delay > 0 {
				select {
				case <-time.After(msg.Delay):
				case <-haltCtx.Done():
					return nil
				}
			}
			if len(msg.Title) > 0 {
				log.Printf("[notifier] %s: %s\n", msg.Title, msg.Message)
			} else {
				log.Printf("[notifier] %s\n", msg.Message)
			}
		case <-haltCtx.Done():
			log.Println("[notifier] exiting notify loop")
			return nil
		}
	}
}

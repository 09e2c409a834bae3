package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const dispatchTimeout = 30 * time.Second

// Notifier sends transactional email. Send is awaited by the caller;
// Dispatch is fire-and-forget and only logs failures.
type Notifier struct {
	sender Sender
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(sender Sender, log *zap.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

func (n *Notifier) Send(ctx context.Context, msg Message) error {
	return n.sender.Send(ctx, msg)
}

// Dispatch sends msg in the background. Messages dispatched after Close are dropped.
func (n *Notifier) Dispatch(msg Message) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.Warn("notifier closed, dropping email", zap.String("subject", msg.Subject))
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := n.sender.Send(ctx, msg); err != nil {
			n.log.Error("send email failed",
				zap.String("to", maskEmail(msg.To)),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	}()
}

// Close stops accepting dispatches and waits for in-flight ones.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
}

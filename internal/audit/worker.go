package audit

import "context"

// Worker consumes submission events from a channel and persists them. It keeps
// background recording off the HTTP request path.
type Worker struct {
	store Store
	inbox <-chan Event
}

// NewWorker wires a store to an inbox channel.
func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run processes events until the context is cancelled or a store write fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

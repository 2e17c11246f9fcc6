package eventbus

import (
	"context"
	"log/slog"

	"github.com/labelforge/labelforge/pkg/panicerr"
)

// Logger subscribes to the bus and mirrors every event into the process log.
type Logger struct {
	bus *Bus
}

func NewLogger(bus *Bus) *Logger {
	return &Logger{bus: bus}
}

// Start blocks until the context is cancelled. Panics in the loop are
// recovered and returned as an error instead of crashing the process.
func (l *Logger) Start(ctx context.Context) error {
	return panicerr.SafeContext(l.run)(ctx)
}

func (l *Logger) run(ctx context.Context) error {
	id, ch := l.bus.Subscribe(128)
	defer l.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			slog.Debug("bus event",
				"event_id", ev.ID,
				"type", ev.Type,
				"resource_id", ev.ResourceID,
				"payload", ev.Payload,
			)
		}
	}
}

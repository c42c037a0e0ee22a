package progression

import (
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/domain"
)

// LogNotifier writes every event to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs at Info level.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("Events")}
}

// Notify implements domain.Notifier.
func (n *LogNotifier) Notify(ev domain.Event) {
	n.logger.Info(ev.Title,
		zap.String("type", string(ev.Type)),
		zap.String("body", ev.Body),
		zap.String("ref", ev.Ref))
}

// Notifiers fans one event out to several sinks in order.
type Notifiers []domain.Notifier

// Notify implements domain.Notifier.
func (ns Notifiers) Notify(ev domain.Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ev)
		}
	}
}

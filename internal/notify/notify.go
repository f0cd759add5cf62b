package notify

import (
	"context"
	"log/slog"

	"github.com/marcin-skalski/ghtray/internal/pr"
)

// Message is one user-facing notification.
type Message struct {
	Title string
	Body  string
	Sound bool
}

// Sink delivers messages somewhere the user will see them.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier turns transitions into messages and fans them out to every sink.
type Notifier struct {
	sinks  []Sink
	sound  bool
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger, sound bool, sinks ...Sink) *Notifier {
	return &Notifier{
		sinks:  sinks,
		sound:  sound,
		logger: logger.With("component", "notify"),
	}
}

func (n *Notifier) Sinks() []Sink { return n.sinks }

// Notify sends one message per notifiable transition and returns how many were produced.
// A failing sink is logged and does not stop delivery to the others.
func (n *Notifier) Notify(ctx context.Context, transitions []pr.Transition) int {
	sent := 0
	for _, t := range transitions {
		title, body, ok := pr.NotificationText(t)
		if !ok {
			continue
		}
		msg := Message{Title: title, Body: body, Sound: n.sound}
		for _, s := range n.sinks {
			if err := s.Send(ctx, msg); err != nil {
				n.logger.Warn("notification failed", "sink", s.Name(), "err", err)
			}
		}
		sent++
	}
	return sent
}

// LogSink writes notifications to the log. It is always installed.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification", "title", msg.Title, "body", msg.Body, "sound", msg.Sound)
	return nil
}

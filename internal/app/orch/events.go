package orch

import (
	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

// LogEvent is a bus listener that writes one line per lifecycle event.
func LogEvent(ev core.Event) {
	e := log.Info()
	if ev.Kind == core.ChatMessage {
		e = log.Debug()
	}
	e.Str("module", "app.events").
		Str("event", ev.Kind.String()).
		Str("name", ev.Name).
		Str("room", string(ev.Room)).
		Str("peer", ev.Peer).
		Msg("lifecycle")
}

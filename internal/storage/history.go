package storage

import (
	"fmt"
	"strings"

	"github.com/keshon/server-herald/internal/events"
)

// HistoryListener records every finished or failed command invocation.
func HistoryListener(s *Storage) *events.Listener {
	return &events.Listener{
		ID:    "history",
		Names: []events.Name{events.CommandFinish, events.CommandError},
		Exec:  func(sig events.Signal) error { return s.record(sig) },
	}
}

func (s *Storage) record(sig events.Signal) error {
	if sig.Context == nil {
		return nil
	}
	m := sig.Context.Message()
	rec := CommandHistoryRecord{
		ChannelID: m.ChannelID,
		UserID:    m.AuthorID,
		Username:  m.AuthorName,
		Datetime:  sig.At,
	}
	if inv := sig.Context.Current(); inv != nil {
		rec.Invoke = inv.Invoke
		rec.Param = strings.Join(inv.Tokens, " ")
	}

	switch p := sig.Payload.(type) {
	case events.CommandFinishEvent:
		rec.Command = p.Command.ID
	case events.CommandErrorEvent:
		if p.Command != nil {
			rec.Command = p.Command.ID
		}
		rec.Failed = true
		rec.Error = p.Err.Error()
	}

	if err := s.AppendCommandToHistory(ScopeKey(m), rec); err != nil {
		return fmt.Errorf("record %s: %w", rec.Command, err)
	}
	return nil
}

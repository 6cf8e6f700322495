// Package storage keeps per-guild bot state in the datastore: the command
// history and prefix overrides.
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/keshon/server-herald/internal/datastore"
	"github.com/keshon/server-herald/internal/platform"
)

const commandHistoryLimit int = 20

type Storage struct {
	ds *datastore.Store
	// mu serializes read-modify-write cycles on records.
	mu sync.Mutex
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Invoke    string    `json:"invoke"`
	Param     string    `json:"param"`
	Failed    bool      `json:"failed,omitempty"`
	Error     string    `json:"error,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	Prefix              string                 `json:"prefix,omitempty"`
}

func New(ds *datastore.Store) *Storage {
	return &Storage{ds: ds}
}

// ScopeKey is the record key for a message: the guild ID, or dm:<userID>
// outside guilds.
func ScopeKey(m *platform.Message) string {
	if m.InGuild() {
		return m.GuildID
	}
	return "dm:" + m.AuthorID
}

func (s *Storage) getOrCreateRecord(key string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(key, &record); err != nil {
		return nil, fmt.Errorf("load record %s: %w", key, err)
	}
	if record.CommandsHistoryList == nil {
		record.CommandsHistoryList = []CommandHistoryRecord{}
	}
	return &record, nil
}

func (s *Storage) update(key string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.getOrCreateRecord(key)
	if err != nil {
		return err
	}
	fn(record)
	return s.ds.Put(key, record)
}

// AppendCommandToHistory records an invocation, keeping only the most recent ones.
func (s *Storage) AppendCommandToHistory(key string, rec CommandHistoryRecord) error {
	return s.update(key, func(r *Record) {
		r.CommandsHistoryList = append(r.CommandsHistoryList, rec)
		if n := len(r.CommandsHistoryList); n > commandHistoryLimit {
			r.CommandsHistoryList = r.CommandsHistoryList[n-commandHistoryLimit:]
		}
	})
}

// FetchCommandHistory returns the history for key, oldest first.
func (s *Storage) FetchCommandHistory(key string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.getOrCreateRecord(key)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}

// SetPrefix overrides the command prefix in a guild. An empty prefix clears it.
func (s *Storage) SetPrefix(guildID, prefix string) error {
	return s.update(guildID, func(r *Record) { r.Prefix = prefix })
}

// Prefix returns the guild's prefix override, if any.
func (s *Storage) Prefix(guildID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.getOrCreateRecord(guildID)
	if err != nil {
		return "", false, err
	}
	return record.Prefix, record.Prefix != "", nil
}

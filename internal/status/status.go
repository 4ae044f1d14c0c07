// Package status keeps the user-visible activity log. Every state change of
// a session appends one short line; frontends subscribe to render it.
package status

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level of a status entry
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Entry is one line of the log
type Entry struct {
	Seq   int
	Time  time.Time
	Level Level
	Text  string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), e.Level, e.Text)
}

// Sink receives status lines
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Log is an append-only, concurrency-safe Sink
type Log struct {
	mu          sync.Mutex
	entries     []Entry
	subscribers map[int]func(Entry)
	nextSub     int
	logger      *zap.Logger
	now         func() time.Time
}

// NewLog creates an empty log that mirrors entries to logger
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		subscribers: make(map[int]func(Entry)),
		logger:      logger,
		now:         time.Now,
	}
}

func (l *Log) Infof(format string, args ...any)  { l.append(Info, fmt.Sprintf(format, args...)) }
func (l *Log) Warnf(format string, args ...any)  { l.append(Warn, fmt.Sprintf(format, args...)) }
func (l *Log) Errorf(format string, args ...any) { l.append(Error, fmt.Sprintf(format, args...)) }

func (l *Log) append(level Level, text string) {
	l.mu.Lock()
	entry := Entry{Seq: len(l.entries) + 1, Time: l.now(), Level: level, Text: text}
	l.entries = append(l.entries, entry)
	subs := make([]func(Entry), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	switch level {
	case Warn:
		l.logger.Warn(text)
	case Error:
		l.logger.Error(text)
	default:
		l.logger.Info(text)
	}

	// Outside the lock so subscribers may read the log
	for _, fn := range subs {
		fn(entry)
	}
}

// Entries returns a copy of all entries in order
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Since returns the entries after sequence number seq
func (l *Log) Since(seq int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.entries) {
		return nil
	}
	entries := make([]Entry, len(l.entries)-seq)
	copy(entries, l.entries[seq:])
	return entries
}

// Last returns the most recent entry
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers fn for every future entry and returns a function
// that removes the subscription.
func (l *Log) Subscribe(fn func(Entry)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

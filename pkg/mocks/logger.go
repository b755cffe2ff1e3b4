package mocks

import (
	"sync"

	"github.com/user/seqwrite/pkg/ports"
)

// LogEntry is one message recorded by Logger.
type LogEntry struct {
	Level     string
	Component string
	Msg       string
	Args      []interface{}
}

// Logger is a mock implementation of ports.Logger that records every
// message. Loggers derived with WithComponent record into their root.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry

	// OnLog, if set, is called for every message after it is recorded,
	// without holding the mock's lock.
	OnLog func(e LogEntry)

	root      *Logger
	component string
}

// NewLogger creates a new mock Logger.
func NewLogger() *Logger {
	return &Logger{}
}

func (m *Logger) top() *Logger {
	if m.root == nil {
		return m
	}
	return m.root
}

func (m *Logger) record(level, msg string, args []interface{}) {
	e := LogEntry{Level: level, Component: m.component, Msg: msg, Args: args}
	r := m.top()
	r.mu.Lock()
	r.entries = append(r.entries, e)
	onLog := r.OnLog
	r.mu.Unlock()
	if onLog != nil {
		onLog(e)
	}
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record("debug", msg, args) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record("info", msg, args) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record("warn", msg, args) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record("error", msg, args) }

func (m *Logger) WithComponent(component string) ports.Logger {
	name := component
	if m.component != "" {
		name = m.component + "/" + component
	}
	return &Logger{root: m.top(), component: name}
}

// Entries returns the recorded messages of the given level, or all of them
// when level is empty.
func (m *Logger) Entries(level string) []LogEntry {
	r := m.top()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogEntry
	for _, e := range r.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

var _ ports.Logger = (*Logger)(nil)

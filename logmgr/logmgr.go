// Package logmgr implements the LogManager from spec §4.10: a
// process-wide facility with multiple named loggers, per-logger levels,
// and an ordered list of Handlers. It wraps github.com/sirupsen/logrus
// the way the teacher's backend packages lean on a shared logging
// library rather than rolling their own formatter/level machinery.
package logmgr

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level mirrors spec §3's LogMessage level enum.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Info:
		return logrus.InfoLevel
	case Warning:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	case Critical:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Message is spec §3's LogMessage tuple.
type Message struct {
	Timestamp time.Time
	Source    string
	Level     Level
	Text      string
}

// Handler receives every Message that passes its owning logger's level
// filter. A Handler must not block indefinitely; RemoteHandler in
// particular is best-effort (spec §4.10, §5).
type Handler interface {
	Handle(Message)
}

// Manager is the process-wide logging facility. One *logrus.Logger is
// created per named source on first use; per-logger level filtering
// happens before a Message ever reaches a Handler.
type Manager struct {
	mu       sync.Mutex
	handlers []Handler
	levels   map[string]Level
	minLevel Level
	loggers  map[string]*logrus.Logger
}

// New creates a Manager with minLevel as the default floor applied to
// sources that have no explicit per-source level.
func New(minLevel Level) *Manager {
	return &Manager{
		levels:  make(map[string]Level),
		minLevel: minLevel,
		loggers: make(map[string]*logrus.Logger),
	}
}

// AddHandler appends handler to the dispatch list. Order matters only in
// that handlers are invoked in registration order; a failing handler
// (recovered panic or returned error signaled via its own logging) never
// prevents the others from running (spec §4.10, §7).
func (m *Manager) AddHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// SetLevel sets the minimum level for one named source.
func (m *Manager) SetLevel(source string, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[source] = level
}

func (m *Manager) levelFor(source string) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levelForLocked(source)
}

func (m *Manager) levelForLocked(source string) Level {
	if l, ok := m.levels[source]; ok {
		return l
	}
	return m.minLevel
}

func (m *Manager) loggerFor(source string) *logrus.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loggers[source]; ok {
		return l
	}
	l := logrus.New()
	l.SetLevel(m.levelForLocked(source).logrusLevel())
	m.loggers[source] = l
	return l
}

// Log records a message at level for source, filtering against the
// source's configured level before dispatching to every handler.
func (m *Manager) Log(source string, level Level, text string) {
	if level < m.levelFor(source) {
		return
	}
	// route through logrus so %-field formatting / text output matches
	// the rest of the ecosystem's logging conventions even though the
	// handlers below are what actually deliver the message to the UI.
	entry := m.loggerFor(source).WithField("source", source)
	logEntry(entry, level, text)

	msg := Message{Timestamp: time.Now(), Source: source, Level: level, Text: text}
	m.dispatch(msg)
}

func logEntry(entry *logrus.Entry, level Level, text string) {
	switch level {
	case Debug:
		entry.Debug(text)
	case Info:
		entry.Info(text)
	case Warning:
		entry.Warn(text)
	case Error:
		entry.Error(text)
	case Critical:
		entry.Error(text) // Critical surfaces as ERROR to logrus; Fatal would os.Exit.
	}
}

// dispatch delivers msg to every handler, isolating failures: a panic
// from one handler is recovered and does not stop delivery to the rest
// (spec §4.10, §7 "LogManager handler failures are swallowed per-handler
// to preserve availability of other handlers").
func (m *Manager) dispatch(msg Message) {
	m.mu.Lock()
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		deliverSafely(h, msg)
	}
}

func deliverSafely(h Handler, msg Message) {
	defer func() { _ = recover() }()
	h.Handle(msg)
}

func (m *Manager) Debugf(source, format string, args ...interface{})    { m.logf(source, Debug, format, args...) }
func (m *Manager) Infof(source, format string, args ...interface{})     { m.logf(source, Info, format, args...) }
func (m *Manager) Warningf(source, format string, args ...interface{})  { m.logf(source, Warning, format, args...) }
func (m *Manager) Errorf(source, format string, args ...interface{})    { m.logf(source, Error, format, args...) }
func (m *Manager) Criticalf(source, format string, args ...interface{}) { m.logf(source, Critical, format, args...) }

func (m *Manager) logf(source string, level Level, format string, args ...interface{}) {
	m.Log(source, level, fmt.Sprintf(format, args...))
}

package logmgr

import (
	"io"

	"github.com/sirupsen/logrus"
)

// StreamHandler echoes every Message to an io.Writer (stderr in
// practice) using logrus's text formatter, enabled only in --debug mode
// (spec §4.10, §6).
type StreamHandler struct {
	logger *logrus.Logger
}

func NewStreamHandler(w io.Writer) *StreamHandler {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.DebugLevel)
	return &StreamHandler{logger: l}
}

func (s *StreamHandler) Handle(msg Message) {
	entry := s.logger.WithField("source", msg.Source)
	logEntry(entry, msg.Level, msg.Text)
}

var _ Handler = (*StreamHandler)(nil)

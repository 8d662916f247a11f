package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindPNG  Kind = "png"
	KindText Kind = "txt"
	KindURI  Kind = "uri"
)

// Sink receives attachments at checkpoints and failures. A sink that
// cannot write must never mask the failure being reported, so Attach has
// no error return.
type Sink interface {
	Attach(name string, kind Kind, payload []byte)
}

// FileSink writes attachments into a run directory. Every write failure is
// logged and swallowed.
type FileSink struct {
	dir string
	log *zap.Logger
}

func NewFileSink(dir string, log *zap.Logger) *FileSink {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("cannot create artifact dir", zap.String("dir", dir), zap.Error(err))
	}
	return &FileSink{dir: dir, log: log}
}

func (s *FileSink) Attach(name string, kind Kind, payload []byte) {
	filename := fmt.Sprintf("%s-%s.%s", slug(name), uuid.NewString()[:8], kind)
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		s.log.Warn("attachment write failed",
			zap.String("name", name), zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Info("attachment written", zap.String("name", name), zap.String("path", path))
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// NopSink discards everything. Handy where a component requires a sink but
// the caller has nowhere to put attachments.
type NopSink struct{}

func (NopSink) Attach(string, Kind, []byte) {}

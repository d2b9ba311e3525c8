package sink

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"epgmerge/internal/config"
	"epgmerge/internal/fileutil"
	"epgmerge/internal/services"
)

// Sink is a destination stream. Callers must finish it exactly one way:
// Close to commit the output, or Abort to discard it after a failure. In
// atomic mode Abort removes the staged files and the final paths are never
// touched; in non-atomic mode the partial file stays behind, matching the
// non-atomic contract.
type Sink interface {
	io.Writer
	Close() error
	Abort()
}

// New opens a sink for the target in the given output mode, creating the
// parent directory as needed. When atomic is set, all writes go through
// temporary files renamed into place on Close.
func New(target Target, mode string, atomic bool) (Sink, error) {
	dir := filepath.Dir(target.XMLPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrIO, "sink", "mkdir", dir, err)
		}
	}

	switch mode {
	case config.OutputModeGzip:
		return newGzipSink(target, atomic)
	default:
		return newDualSink(target, atomic)
	}
}

// dualSink writes the uncompressed XML and derives the gzipped sibling from
// the finished file on Close.
type dualSink struct {
	file      *os.File
	target    Target
	atomic    bool
	xmlStage  string
	committed bool
}

func newDualSink(target Target, atomic bool) (Sink, error) {
	xmlStage := target.XMLPath
	if atomic {
		xmlStage = stagePath(target.XMLPath)
	}
	file, err := os.OpenFile(xmlStage, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "sink", "open", xmlStage, err)
	}
	return &dualSink{file: file, target: target, atomic: atomic, xmlStage: xmlStage}, nil
}

func (s *dualSink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *dualSink) Close() error {
	if s.committed {
		return nil
	}
	s.committed = true

	if err := s.file.Close(); err != nil {
		s.cleanupStage()
		return services.Wrap(services.ErrIO, "sink", "close", s.xmlStage, err)
	}

	gzStage := s.target.GzPath
	if s.atomic {
		gzStage = stagePath(s.target.GzPath)
	}
	if err := fileutil.GzipFile(s.xmlStage, gzStage); err != nil {
		s.cleanupStage()
		if s.atomic {
			_ = os.Remove(gzStage)
		}
		return services.Wrap(services.ErrIO, "sink", "compress", gzStage, err)
	}

	if s.atomic {
		if err := os.Rename(s.xmlStage, s.target.XMLPath); err != nil {
			_ = os.Remove(s.xmlStage)
			_ = os.Remove(gzStage)
			return services.Wrap(services.ErrIO, "sink", "rename", s.target.XMLPath, err)
		}
		if err := os.Rename(gzStage, s.target.GzPath); err != nil {
			_ = os.Remove(gzStage)
			return services.Wrap(services.ErrIO, "sink", "rename", s.target.GzPath, err)
		}
	}
	return nil
}

// Abort closes the stream without committing. No rename happens, so in
// atomic mode the destination keeps whatever it held before the run.
func (s *dualSink) Abort() {
	if s.committed {
		return
	}
	s.committed = true
	_ = s.file.Close()
	s.cleanupStage()
}

func (s *dualSink) cleanupStage() {
	if s.atomic {
		_ = os.Remove(s.xmlStage)
	}
}

// gzipSink compresses directly to the gz member; the uncompressed form never
// reaches storage.
type gzipSink struct {
	file      *os.File
	zw        *gzip.Writer
	target    Target
	atomic    bool
	gzStage   string
	committed bool
}

func newGzipSink(target Target, atomic bool) (Sink, error) {
	gzStage := target.GzPath
	if atomic {
		gzStage = stagePath(target.GzPath)
	}
	file, err := os.OpenFile(gzStage, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "sink", "open", gzStage, err)
	}
	return &gzipSink{
		file:    file,
		zw:      gzip.NewWriter(file),
		target:  target,
		atomic:  atomic,
		gzStage: gzStage,
	}, nil
}

func (s *gzipSink) Write(p []byte) (int, error) {
	return s.zw.Write(p)
}

func (s *gzipSink) Close() error {
	if s.committed {
		return nil
	}
	s.committed = true

	if err := s.zw.Close(); err != nil {
		_ = s.file.Close()
		s.cleanupStage()
		return services.Wrap(services.ErrIO, "sink", "close", s.gzStage, err)
	}
	if err := s.file.Close(); err != nil {
		s.cleanupStage()
		return services.Wrap(services.ErrIO, "sink", "close", s.gzStage, err)
	}
	if s.atomic {
		if err := os.Rename(s.gzStage, s.target.GzPath); err != nil {
			_ = os.Remove(s.gzStage)
			return services.Wrap(services.ErrIO, "sink", "rename", s.target.GzPath, err)
		}
	}
	return nil
}

// Abort closes the stream without committing.
func (s *gzipSink) Abort() {
	if s.committed {
		return
	}
	s.committed = true
	_ = s.zw.Close()
	_ = s.file.Close()
	s.cleanupStage()
}

func (s *gzipSink) cleanupStage() {
	if s.atomic {
		_ = os.Remove(s.gzStage)
	}
}

func stagePath(path string) string {
	return path + ".tmp"
}

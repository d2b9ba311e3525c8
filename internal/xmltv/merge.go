package xmltv

import (
	"encoding/xml"
	"io"
	"log/slog"

	"epgmerge/internal/logging"
	"epgmerge/internal/services"
)

const (
	xmlDeclaration = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"
	rootName       = "tv"
)

// Options controls merge behavior.
type Options struct {
	// DedupeChannels drops any channel whose non-empty id attribute has
	// already been written. Channels without an id are always kept.
	DedupeChannels bool
	Logger         *slog.Logger
}

// Stats summarizes one merge run.
type Stats struct {
	Payloads          int
	Parsed            int
	ParseFailures     int
	Channels          int
	DuplicateChannels int
	Programmes        int
}

// Merge streams the payloads into w as one guide document. Payloads that fail
// to parse are logged and skipped; they contribute nothing. When every payload
// fails the output is still a valid empty-bodied document and the returned
// error is nil; callers decide whether an empty merge is fatal. Only write
// failures produce an error.
func Merge(payloads [][]byte, w io.Writer, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stats := Stats{Payloads: len(payloads)}
	seen := make(map[string]struct{})

	if err := writeRootOpen(w, rootAttributes(payloads)); err != nil {
		return stats, services.Wrap(services.ErrIO, "merge", "write", "prologue", err)
	}

	for idx, payload := range payloads {
		doc, err := parseDocument(payload)
		if err != nil {
			stats.ParseFailures++
			logger.Warn("skipping unparseable payload",
				logging.Int("payload", idx),
				logging.Error(err))
			continue
		}
		stats.Parsed++

		for _, channel := range doc.Channels {
			if opts.DedupeChannels {
				if id := channel.id(); id != "" {
					if _, dup := seen[id]; dup {
						stats.DuplicateChannels++
						continue
					}
					seen[id] = struct{}{}
				}
			}
			if err := writeElement(w, "channel", channel); err != nil {
				return stats, services.Wrap(services.ErrIO, "merge", "write", "channel", err)
			}
			stats.Channels++
		}

		for _, programme := range doc.Programmes {
			if err := writeElement(w, "programme", programme); err != nil {
				return stats, services.Wrap(services.ErrIO, "merge", "write", "programme", err)
			}
			stats.Programmes++
		}
	}

	if _, err := io.WriteString(w, "</"+rootName+">\n"); err != nil {
		return stats, services.Wrap(services.ErrIO, "merge", "write", "epilogue", err)
	}
	return stats, nil
}

// rootAttributes adopts the root attributes of the first payload that parses,
// scanning in order and stopping at the first success. A run where nothing
// parses gets an attribute-less root rather than an aborted merge.
func rootAttributes(payloads [][]byte) []xml.Attr {
	for _, payload := range payloads {
		doc, err := parseDocument(payload)
		if err != nil {
			continue
		}
		return doc.Attrs
	}
	return nil
}

// Package sink resolves merge output destinations and provides the byte sinks
// the merge engine streams into: a plain XML file with a gzipped sibling, or a
// gzip-only stream. Both honor overwrite gating before any byte is written and
// can optionally stage through temporary files renamed into place on Close.
package sink

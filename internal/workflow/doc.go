// Package workflow orchestrates the merge pipeline: fetch each configured
// source, decompress it, merge the usable payloads through an output sink, and
// classify the outcome for the command layer. It also hosts the independent
// single-document refresh operation.
//
// A run is strictly sequential. Sources are fetched one after another, failed
// sources are logged and skipped, and a file lock keeps concurrent runs from
// clobbering the same destination.
package workflow

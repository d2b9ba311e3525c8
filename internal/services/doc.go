// Package services defines the shared error taxonomy for the epgmerge
// pipeline and maps classified errors to process exit codes.
//
// Components wrap failures with one of the exported sentinel errors so the
// command layer can decide the run outcome without string matching.
package services

// Package fetchcache persists HTTP validators and bodies for source feeds in
// SQLite so unchanged feeds are answered from disk via conditional requests.
package fetchcache

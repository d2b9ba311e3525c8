// Package xmltv merges decompressed XMLTV payloads into a single well-formed
// guide document.
//
// Each payload is parsed independently into a lightweight document whose
// channel and programme elements keep their attributes and descendants
// verbatim via innerxml capture. The merge streams elements to the output as
// each payload is processed, so memory use is bounded by one payload plus the
// set of channel ids already written. Channel deduplication is
// first-occurrence-wins on the id attribute; channels without an id and all
// programme elements are written unconditionally.
package xmltv

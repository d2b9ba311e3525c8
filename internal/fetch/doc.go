// Package fetch retrieves raw provider payloads over HTTP and decompresses
// them. It performs no retries: callers log and skip a failed source and
// continue with the remaining ones.
//
// An optional Cache lets the client issue conditional requests
// (If-None-Match / If-Modified-Since) and reuse the stored body on 304.
package fetch

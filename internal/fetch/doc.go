// Package fetch downloads release files over HTTP(S) with progress reporting.
//
// A download is a single attempt; there are no retries.
package fetch

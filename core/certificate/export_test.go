package certificate

import "io"

// SetRandReader swaps the source of generated identifiers and returns a func restoring it.
func SetRandReader(r io.Reader) (restore func()) {
	prev := randReader
	randReader = r
	return func() { randReader = prev }
}

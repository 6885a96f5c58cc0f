package hash

// Hash produces and checks keyed digests.
type Hash interface {
	// Hash returns the hex encoded digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether hashed is the digest of str.
	Verify(hashed, str string) bool
}

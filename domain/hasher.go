package domain

// Hasher fingerprints user messages for diagnostic logs.
type Hasher interface {
	Hash(data []byte) string
}

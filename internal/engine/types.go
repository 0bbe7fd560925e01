package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Seeds keys a provably-fair session.
type Seeds struct {
	Server string `json:"server_seed"` // ASCII; do NOT hex-decode
	Client string `json:"client_seed"`
	Nonce  uint64 `json:"nonce"`
}

// Hash returns the hex SHA-256 of the server seed, the only form of it that
// is ever shown or stored.
func (s Seeds) Hash() string {
	if s.Server == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.Server))
	return hex.EncodeToString(sum[:])
}

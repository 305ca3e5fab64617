package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// PendingCode is a single-use verification code gating membership creation.
// A user holds at most one live code; issuing a new one replaces it. The
// code itself is stored hashed, never in the clear.
type PendingCode struct {
	UserID    string    `json:"user_id"`
	EventID   int64     `json:"event_id"`
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *PendingCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// GenerateVerificationCode returns a uniformly random 6-digit decimal code
// in [100000, 999999].
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

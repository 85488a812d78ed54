package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(symbol|lookback_days|daily_contribution|ran_at_unix_nano)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	symbol string,
	lookbackDays int,
	dailyContribution float64,
	ranAtUnixNano int64,
) string {
	data := fmt.Sprintf("%s|%d|%g|%d",
		symbol,
		lookbackDays,
		dailyContribution,
		ranAtUnixNano,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

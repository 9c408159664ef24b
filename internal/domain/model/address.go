package model

import "strings"

// NormalizeAddress returns the canonical lower-case hex form used for all keys.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ReserveID builds the reserve key from its underlying asset and pool.
func ReserveID(underlyingAsset, pool string) string {
	return NormalizeAddress(underlyingAsset) + NormalizeAddress(pool)
}

// UserReserveID builds the user-reserve key.
func UserReserveID(user, reserveID string) string {
	return NormalizeAddress(user) + reserveID
}

// TruncateTimestamp keeps the low 32 bits of a block timestamp, matching the
// int32 columns the snapshot has always exposed.
func TruncateTimestamp(ts uint64) int32 {
	return int32(uint32(ts))
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GenerateID generates a random hex ID
func GenerateID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// IsValidAddress checks if a string is a valid Ethereum address
func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress normalizes an address to lowercase with 0x prefix
func NormalizeAddress(address string) string {
	if !strings.HasPrefix(address, "0x") {
		address = "0x" + address
	}
	return strings.ToLower(address)
}

// ShortenAddress abbreviates an address for display: 0x1234…abcd
func ShortenAddress(address common.Address) string {
	hexAddr := address.Hex()
	return hexAddr[:6] + "…" + hexAddr[len(hexAddr)-4:]
}

// FormatTimestamp renders a Unix timestamp in local time for display.
func FormatTimestamp(ts uint64) string {
	if ts == 0 {
		return "—"
	}
	return time.Unix(int64(ts), 0).Format("Jan 2, 2006 15:04")
}

// IsExpired reports whether a Unix-second deadline has passed.
func IsExpired(deadline uint64) bool {
	return time.Unix(int64(deadline), 0).Before(time.Now())
}

// TimeRemaining describes how long until a deadline.
func TimeRemaining(deadline uint64) string {
	diff := time.Until(time.Unix(int64(deadline), 0))
	if diff <= 0 {
		return "Expired"
	}
	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	}
	mins := int(diff.Minutes()) % 60
	return fmt.Sprintf("%dh %dm remaining", hours, mins)
}

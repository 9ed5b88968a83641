package common

import (
	"fmt"
	"strings"
)

const lamportsPerSOL = 1_000_000_000

// LamportsToSOL formats lamports as a decimal SOL string without float rounding.
func LamportsToSOL(lamports uint64) string {
	whole := lamports / lamportsPerSOL
	frac := lamports % lamportsPerSOL
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}

// ShortAddr shortens an address for log lines.
func ShortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + ".." + addr[len(addr)-4:]
}

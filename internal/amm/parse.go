package amm

import (
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount parses a base-10 non-negative integer that fits in 256 bits.
func ParseAmount(input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInvalidAmount
	}
	if strings.HasPrefix(input, "-") {
		return nil, ErrInvalidAmount
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return nil, ErrInvalidAmount
		}
	}
	value, err := uint256.FromDecimal(input)
	if err != nil {
		return nil, ErrOverflow
	}
	return value, nil
}

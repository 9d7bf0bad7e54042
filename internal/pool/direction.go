package pool

import (
	"fmt"
	"strings"
)

// Direction selects which reserve a swap pays into.
type Direction uint8

const (
	Asset1ToAsset2 Direction = iota + 1
	Asset2ToAsset1
)

func (d Direction) String() string {
	switch d {
	case Asset1ToAsset2:
		return "1to2"
	case Asset2ToAsset1:
		return "2to1"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) valid() bool {
	return d == Asset1ToAsset2 || d == Asset2ToAsset1
}

// ParseDirection accepts "1to2" and "2to1" (case-insensitive, "1->2" style too).
func ParseDirection(input string) (Direction, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "->", "to")
	switch normalized {
	case "1to2":
		return Asset1ToAsset2, nil
	case "2to1":
		return Asset2ToAsset1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, input)
}

package ingestion

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidMint is returned for ids that are not 32-byte base58 public keys.
var ErrInvalidMint = errors.New("invalid mint address")

// ValidateMint decodes a mint address and reports whether it lies on the
// ed25519 curve. Off-curve keys are program-derived and still accepted.
func ValidateMint(id string) (onCurve bool, err error) {
	if id == "" {
		return false, fmt.Errorf("%w: empty", ErrInvalidMint)
	}
	raw, err := base58.Decode(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidMint, id, err)
	}
	if len(raw) != 32 {
		return false, fmt.Errorf("%w: %s decodes to %d bytes", ErrInvalidMint, id, len(raw))
	}
	return isOnCurve(raw), nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

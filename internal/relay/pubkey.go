package relay

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ParsePubKey normalizes a public key given either as 64 hex characters or
// in npub (bech32) form, returning the lowercase hex encoding.
func ParsePubKey(s string) (string, error) {
	if strings.HasPrefix(s, "npub1") {
		return decodeNpub(s)
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("relay: pubkey %q is neither npub nor hex: %w", s, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("relay: pubkey %q: got %d bytes, want 32", s, len(raw))
	}
	return strings.ToLower(s), nil
}

func decodeNpub(s string) (string, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return "", fmt.Errorf("relay: decode npub: %w", err)
	}
	if hrp != "npub" {
		return "", fmt.Errorf("relay: unexpected bech32 prefix %q, want npub", hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("relay: npub payload: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("relay: npub payload: got %d bytes, want 32", len(raw))
	}
	return hex.EncodeToString(raw), nil
}

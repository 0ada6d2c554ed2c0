package wtypes

import "fmt"

func EnsureDigest32(d []byte) error {
	if len(d) != 32 {
		return fmt.Errorf("digest must be 32 bytes, got %d", len(d))
	}
	return nil
}

// SigToV27 returns a copy of sig65 with V moved to 27/28. Signatures that
// already use 27/28 are copied unchanged.
func SigToV27(sig65 []byte) ([]byte, error) {
	if len(sig65) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig65))
	}
	out := append([]byte(nil), sig65...)

	switch out[64] {
	case 0, 1:
		out[64] += 27
	case 27, 28:
	default:
		return nil, fmt.Errorf("unexpected v value %d", out[64])
	}
	return out, nil
}

// SplitSig splits a 65-byte signature into r, s and v.
func SplitSig(sig65 []byte) (r, s [32]byte, v uint8, err error) {
	if len(sig65) != 65 {
		return r, s, 0, fmt.Errorf("signature must be 65 bytes, got %d", len(sig65))
	}
	copy(r[:], sig65[:32])
	copy(s[:], sig65[32:64])
	return r, s, sig65[64], nil
}

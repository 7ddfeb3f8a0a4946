package uploadsvc

import (
	"crypto/md5" //nolint:gosec // отпечаток клиента, а не криптографическая защита
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Алгоритмы проверки отпечатка при сборке.
const (
	DigestNone   = ""
	DigestMD5    = "md5"
	DigestSHA256 = "sha256"
)

// newDigest возвращает hash для алгоритма или nil, если проверка выключена.
func newDigest(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case DigestNone:
		return nil, nil
	case DigestMD5:
		return md5.New(), nil //nolint:gosec
	case DigestSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest %q", algo)
	}
}

func digestMatches(h hash.Hash, fingerprint string) bool {
	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), fingerprint)
}

package models

import (
	"fmt"
	"sort"
	"strings"
)

// Chunk описывает одну часть, лежащую в staging-области.
type Chunk struct {
	Index int   `json:"index"`
	Size  int64 `json:"size"`
}

// SortChunks упорядочивает части по числовому индексу ("2" раньше "10").
func SortChunks(chunks []Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
}

// ArtifactName формирует имя итогового файла: {fingerprint}-{fileName}.
func ArtifactName(fingerprint, fileName string) string {
	return fmt.Sprintf("%s-%s", fingerprint, fileName)
}

// ValidateFingerprint проверяет, что отпечаток можно использовать как один элемент пути.
func ValidateFingerprint(fingerprint string) error {
	if fingerprint == "" {
		return ErrMissingFingerprint
	}
	if !isPathElement(fingerprint) {
		return fmt.Errorf("%w: fingerprint %q", ErrInvalidParameter, fingerprint)
	}
	return nil
}

// ValidateFileName проверяет имя файла, заявленное клиентом.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrMissingParameter
	}
	if !isPathElement(name) {
		return fmt.Errorf("%w: file name %q", ErrInvalidParameter, name)
	}
	return nil
}

func isPathElement(s string) bool {
	if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

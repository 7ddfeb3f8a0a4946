package models

import "errors"

var (
	ErrMissingParameter    = errors.New("missing parameter")
	ErrMissingFingerprint  = errors.New("missing fingerprint")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNoPayload           = errors.New("no file received")
	ErrStagingAreaMissing  = errors.New("staging area missing")
	ErrChunkCountMismatch  = errors.New("chunk count mismatch")
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	ErrMergeFailed         = errors.New("merge failed")
)

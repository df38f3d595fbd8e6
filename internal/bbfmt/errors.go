package bbfmt

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("bbfmt: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("bbfmt: truncated buffer")
	// ErrCorruptNode indicates a zero child count or a size inconsistent with keySize/valSize.
	ErrCorruptNode = errors.New("bbfmt: corrupt node")
	// ErrKeyTooLong indicates a B+ tree lookup key exceeds the tree's keySize.
	ErrKeyTooLong = errors.New("bbfmt: key too long")
)

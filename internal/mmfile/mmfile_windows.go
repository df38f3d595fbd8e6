//go:build windows

// Package mmfile provides platform-specific helpers for memory-mapping BigBed files.
package mmfile

import (
	"os"
)

// Map reads the entire file into memory and returns its contents; no
// memory mapping is made on Windows.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

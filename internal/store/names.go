package store

import (
	"path/filepath"
	"strings"

	"cipherxfer/internal/domain"
)

// validName accepts only a single, clean, non-hidden path element so a
// peer-declared name can never escape the storage directory.
func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return domain.ErrInvalidName
	case strings.ContainsAny(name, `/\`+"\x00"):
		return domain.ErrInvalidName
	case strings.HasPrefix(name, "."):
		return domain.ErrInvalidName
	case filepath.Base(name) != name:
		return domain.ErrInvalidName
	}
	return nil
}

package tool

import (
	"errors"
	"os"
)

// IsFileExists reports whether filename exists, an access error is returned as is.
func IsFileExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Package feeders provides configuration feeders that populate a struct from
// environment variables and from JSON, YAML or TOML files.
package feeders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
)

// Feeder populates target, which must be a pointer.
type Feeder interface {
	Feed(target interface{}) error
}

// fileFeed reads path and decodes it into target with unmarshal.
func fileFeed(path, fileType string, target interface{}, unmarshal func([]byte, interface{}) error) error {
	if rv := reflect.ValueOf(target); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to read %s file %s: %w", fileType, path, err)
	}

	if err := unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data from %s: %w", fileType, path, err)
	}
	return nil
}

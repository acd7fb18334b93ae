package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/core"
)

// prepareRoot creates root and empties it when it already holds entries
func prepareRoot(root string, log *logrus.Entry) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", core.ErrResource, root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", core.ErrResource, root, err)
	}
	if len(entries) == 0 {
		return nil
	}

	log.WithFields(logrus.Fields{"root": root, "entries": len(entries)}).Warn("Output root is not empty, clearing it")
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return fmt.Errorf("%w: clear %s: %v", core.ErrResource, root, err)
		}
	}
	return nil
}

// createExclusive creates path, failing if it exists
func createExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", core.ErrResource, path, err)
	}
	return f, nil
}

// writeExclusive creates path and writes data in one go
func writeExclusive(path string, data []byte) error {
	f, err := createExclusive(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

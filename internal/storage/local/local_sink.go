// Package local saves downloaded exports into a directory on disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docdesk/internal/port"
)

type localSink struct {
	dir string
}

// NewLocalSink creates a DownloadSink writing into dir, creating it when missing.
func NewLocalSink(dir string) (port.DownloadSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download dir: %w", err)
	}
	return &localSink{dir: dir}, nil
}

// Save writes the content verbatim. An existing file is never overwritten; the name gets a
// " (n)" suffix instead.
func (s *localSink) Save(_ context.Context, input port.SaveInput) (*port.SaveOutput, error) {
	name := cleanName(input.Filename)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; n < 1000; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		target := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("localSink.Save: %w", err)
		}
		if _, err := f.Write(input.Content); err != nil {
			f.Close()
			return nil, fmt.Errorf("localSink.Save: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("localSink.Save: %w", err)
		}
		return &port.SaveOutput{Location: target}, nil
	}
	return nil, fmt.Errorf("localSink.Save: too many files named %s", name)
}

func cleanName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if name == "/" || name == "." || name == "" {
		return "download"
	}
	return name
}

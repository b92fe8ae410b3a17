package render

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer receives one complete rendering per call.
type Writer interface {
	Write(data []byte) error
}

// StreamWriter appends every rendering to a stream.
type StreamWriter struct {
	Out io.Writer
}

func (s StreamWriter) Write(data []byte) error {
	if _, err := s.Out.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// FileWriter replaces a file with every rendering. The new content is
// written to a temporary file in the same directory and renamed over
// Path, so readers never see a partial page.
type FileWriter struct {
	Path string

	// Perm defaults to 0644.
	Perm os.FileMode

	Logger *slog.Logger
}

func (fw *FileWriter) Write(data []byte) (err error) {
	dir := filepath.Dir(fw.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fw.Path)+".*")
	if err != nil {
		return fmt.Errorf("writing file %s: %w", fw.Path, err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	perm := fw.Perm
	if perm == 0 {
		perm = 0o644
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(perm)
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmp.Name(), fw.Path)
	}

	if err != nil {
		return fmt.Errorf("writing file %s: %w", fw.Path, err)
	}

	if fw.Logger != nil {
		fw.Logger.Debug("wrote output", slog.String("path", fw.Path), slog.Int("bytes", len(data)))
	}

	return nil
}

// NewWriter writes to the file at path, or to out when path is empty.
func NewWriter(path string, out io.Writer, logger *slog.Logger) Writer {
	if path != "" {
		return &FileWriter{Path: path, Logger: logger}
	}

	if out == nil {
		out = os.Stdout
	}

	return StreamWriter{Out: out}
}

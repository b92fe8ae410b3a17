package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// compile-time interface conformance check.
var _ Store = (*FileSource)(nil)

// FileSource reads runs from a manifest file or a directory tree of
// .yaml, .yml and .json files. Every Fetch re-reads the files so edits
// show up without restarting.
type FileSource struct {
	path   string
	parser pipelinerun.Parser
	logger *slog.Logger
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithParser overrides the manifest parser.
func WithParser(p pipelinerun.Parser) FileSourceOption {
	return func(src *FileSource) {
		src.parser = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FileSourceOption {
	return func(src *FileSource) {
		src.logger = logger
	}
}

// NewFileSource creates a source rooted at path.
func NewFileSource(path string, opts ...FileSourceOption) *FileSource {
	s := &FileSource{
		path:   path,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.parser == nil {
		s.parser = pipelinerun.NewParser(s.logger)
	}

	return s
}

// Path returns the root path.
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads all manifests and returns the runs matching q.
func (s *FileSource) Fetch(ctx context.Context, q Query) ([]*pipelinerun.Run, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	var all []*pipelinerun.Run

	for _, f := range files {
		data, err := os.ReadFile(f) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}

		runs, err := s.parser.Parse(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}

		all = append(all, runs...)
	}

	selected := Select(q, all)

	s.logger.Debug("fetched pipelineruns",
		slog.String("path", s.path),
		slog.Int("files", len(files)),
		slog.Int("total", len(all)),
		slog.Int("matched", len(selected)),
	)

	return selected, nil
}

// Create writes run as a new manifest. In directory mode each run gets
// its own file; in single-file mode the run is appended as a new
// document.
func (s *FileSource) Create(ctx context.Context, run *pipelinerun.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if run.Object == nil {
		return fmt.Errorf("pipelinerun %s has no object", run.QualifiedName())
	}

	data, err := sigsyaml.Marshal(run.Object.Object)
	if err != nil {
		return fmt.Errorf("serializing pipelinerun %s: %w", run.QualifiedName(), err)
	}

	info, err := os.Stat(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("inspecting %s: %w", s.path, err)
	}

	if err == nil && !info.IsDir() {
		return s.appendDocument(run, data)
	}

	if err := os.MkdirAll(s.path, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", s.path, err)
	}

	name := filepath.Join(s.path, fileName(run))

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("pipelinerun %s already exists", run.QualifiedName())
		}

		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	s.logger.Info("created pipelinerun", slog.String("run", run.QualifiedName()), slog.String("file", name))

	return nil
}

func (s *FileSource) appendDocument(run *pipelinerun.Run, data []byte) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append([]byte("\n---\n"), data...)); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	s.logger.Info("created pipelinerun", slog.String("run", run.QualifiedName()), slog.String("file", s.path))

	return nil
}

// Cancel sets spec.status on the manifest of namespace/name and rewrites
// the file holding it. Other documents in the file are kept verbatim.
func (s *FileSource) Cancel(ctx context.Context, namespace, name string) (*pipelinerun.Run, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(f) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}

		docs := pipelinerun.SplitDocuments(data)

		for i, doc := range docs {
			run, out, found, err := pipelinerun.CancelInDocument(doc, namespace, name)
			if err != nil {
				return nil, fmt.Errorf("cancelling in %s: %w", f, err)
			}

			if !found {
				continue
			}

			docs[i] = out

			if err := replaceFile(f, joinDocuments(docs)); err != nil {
				return nil, err
			}

			s.logger.Info("cancelled pipelinerun", slog.String("run", run.QualifiedName()), slog.String("file", f))

			return run, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, qualified(namespace, name))
}

func joinDocuments(docs [][]byte) []byte {
	var out []byte

	for i, doc := range docs {
		doc = bytes.TrimLeft(doc, "\n")
		if i > 0 {
			out = append(out, "---\n"...)
		}

		out = append(out, doc...)
		if !bytes.HasSuffix(out, []byte("\n")) {
			out = append(out, '\n')
		}
	}

	return out
}

// replaceFile swaps path's content through a temporary file in the same
// directory, keeping its permissions.
func replaceFile(path string, data []byte) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(info.Mode().Perm())
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}

	return namespace + "/" + name
}

func fileName(run *pipelinerun.Run) string {
	if run.Namespace == "" {
		return run.Name + ".yaml"
	}

	return run.Namespace + "_" + run.Name + ".yaml"
}

// files lists the manifest files under the source path, skipping hidden
// directories.
func (s *FileSource) files() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", s.path, err)
	}

	if !info.IsDir() {
		return []string{s.path}, nil
	}

	var files []string

	err = filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.path {
				return filepath.SkipDir
			}

			return nil
		}

		if IsManifest(path) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source %s: %w", s.path, err)
	}

	return files, nil
}

// IsManifest reports whether path looks like a run manifest file.
func IsManifest(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}

	return false
}

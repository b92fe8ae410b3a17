package pipelinerun

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	sigsyaml "sigs.k8s.io/yaml"
)

// Parser decodes manifests into runs.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]*Run, error)
}

// compile-time interface conformance check.
var _ Parser = (*DefaultParser)(nil)

// DefaultParser reads multi-document YAML or JSON. Documents of other
// kinds are skipped; List documents are expanded.
type DefaultParser struct {
	logger *slog.Logger
}

// NewParser creates a DefaultParser. A nil logger uses slog.Default().
func NewParser(logger *slog.Logger) *DefaultParser {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultParser{logger: logger}
}

// Parse splits data into documents and decodes every PipelineRun found.
func (p *DefaultParser) Parse(ctx context.Context, data []byte) ([]*Run, error) {
	var runs []*Run

	for i, doc := range SplitDocuments(data) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := p.parseDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("parsing document %d: %w", i, err)
		}

		runs = append(runs, found...)
	}

	return runs, nil
}

// header holds just enough of a document to decide how to decode it.
type header struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Metadata   struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`
}

func (p *DefaultParser) parseDocument(doc []byte) ([]*Run, error) {
	var h header
	if err := yaml.Unmarshal(doc, &h); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	switch {
	case IsPipelineRun(h.APIVersion, h.Kind):
		u, err := decode(doc)
		if err != nil {
			return nil, err
		}

		return []*Run{FromUnstructured(u)}, nil

	case strings.HasSuffix(h.Kind, "List"):
		return p.parseList(doc, h.Kind)

	default:
		p.logger.Debug("skipping document",
			slog.String("apiVersion", h.APIVersion),
			slog.String("kind", h.Kind),
			slog.String("name", h.Metadata.Name),
		)

		return nil, nil
	}
}

func (p *DefaultParser) parseList(doc []byte, listKind string) ([]*Run, error) {
	u, err := decode(doc)
	if err != nil {
		return nil, err
	}

	items, _, err := unstructured.NestedSlice(u.Object, "items")
	if err != nil {
		return nil, fmt.Errorf("reading %s items: %w", listKind, err)
	}

	var runs []*Run

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		iu := &unstructured.Unstructured{Object: obj}

		// Typed lists may omit apiVersion/kind on their items.
		if listKind == Kind+"List" && iu.GetKind() == "" {
			iu.SetAPIVersion(u.GetAPIVersion())
			iu.SetKind(Kind)
		}

		if !IsPipelineRun(iu.GetAPIVersion(), iu.GetKind()) {
			continue
		}

		runs = append(runs, FromUnstructured(iu))
	}

	return runs, nil
}

func decode(doc []byte) (*unstructured.Unstructured, error) {
	var obj map[string]interface{}
	if err := sigsyaml.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	return &unstructured.Unstructured{Object: obj}, nil
}

// IsPipelineRun reports whether apiVersion/kind identify a Tekton
// PipelineRun.
func IsPipelineRun(apiVersion, kind string) bool {
	if kind != Kind {
		return false
	}

	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return false
	}

	return gv.Group == Group
}

// docSeparator matches a line containing only "---".
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// SplitDocuments splits multi-document YAML, dropping empty documents.
func SplitDocuments(data []byte) [][]byte {
	var docs [][]byte

	for _, part := range docSeparator.Split(string(data), -1) {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}

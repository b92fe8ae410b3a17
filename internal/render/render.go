package render

import (
	"bytes"
	"fmt"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/view"
)

// Page formats state with f and sends it to w in a single write.
func Page(w Writer, f Formatter, state view.State) error {
	var buf bytes.Buffer

	if err := f.Format(&buf, state); err != nil {
		return fmt.Errorf("formatting page: %w", err)
	}

	return w.Write(buf.Bytes())
}

// Manifest serializes a run's object as YAML with a trailing newline.
func Manifest(run *pipelinerun.Run) ([]byte, error) {
	if run.Object == nil {
		return nil, fmt.Errorf("pipelinerun %s has no object", run.QualifiedName())
	}

	data, err := sigsyaml.Marshal(run.Object.Object)
	if err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return data, nil
}

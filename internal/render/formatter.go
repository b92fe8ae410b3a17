package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/view"
)

// Output format names.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formatter writes a page snapshot to a writer.
type Formatter interface {
	Format(w io.Writer, state view.State) error
}

// Options configures formatters.
type Options struct {
	// NoColor disables ANSI styling in table output.
	NoColor bool

	// Now is used for the duration of unfinished runs. Defaults to time.Now.
	Now func() time.Time
}

// NewFormatter returns a formatter for the given format name.
// Supported: "table" (default), "json", "yaml".
func NewFormatter(format string, opts Options) (Formatter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		styles := DefaultStyles()
		if opts.NoColor {
			styles = PlainStyles()
		}

		return &TableFormatter{styles: styles, now: opts.Now}, nil
	case FormatJSON:
		return &JSONFormatter{now: opts.Now}, nil
	case FormatYAML:
		return &YAMLFormatter{now: opts.Now}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q: use table, json, or yaml", format)
	}
}

// --- Table Formatter ---

// TableFormatter writes the page the way the dashboard lays it out:
// notifications, the filter bar, then the run table.
type TableFormatter struct {
	styles Styles
	now    func() time.Time
}

// Format writes the page as a human-readable table.
func (f *TableFormatter) Format(w io.Writer, state view.State) error {
	st := f.styles

	_, _ = fmt.Fprintln(w, st.Title.Render(title(state)))

	for _, n := range state.Notifications() {
		style := st.Success
		if n.Kind == view.NotificationError {
			style = st.Error
		}

		line := style.Render(n.Title)
		if n.Subtitle != "" {
			line += " " + n.Subtitle
		}

		_, _ = fmt.Fprintln(w, line)

		if n.Link != nil && n.Link.URL != "" {
			text := n.Link.Text
			if text == "" {
				text = n.Link.URL
			}

			_, _ = fmt.Fprintf(w, "  %s %s\n", text, st.Link.Render(n.Link.URL))
		}
	}

	_, _ = fmt.Fprintln(w, f.filterBar(state))

	if state.Error != "" {
		_, _ = fmt.Fprintln(w, st.Error.Render("Error loading PipelineRuns: "+state.Error))
		return nil
	}

	if len(state.Runs) == 0 {
		_, _ = fmt.Fprintln(w, st.Muted.Render("No PipelineRuns found"))
		return nil
	}

	runs := append([]*pipelinerun.Run(nil), state.Runs...)
	pipelinerun.SortByStartTime(runs)

	// Styling is applied after alignment so escape codes do not skew widths.
	var buf bytes.Buffer

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "STATUS\tNAME\tPIPELINE\tNAMESPACE\tCREATED\tDURATION")

	now := f.now()

	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			statusText(r),
			r.Name,
			dash(r.PipelineName),
			dash(r.Namespace),
			created(r),
			duration(r, now),
		)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			line = st.Header.Render(line)
		default:
			line = st.Status(runs[i-1].Status).Render(line)
		}

		_, _ = fmt.Fprintln(w, line)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "PipelineRuns: %d\n", len(runs))

	return nil
}

func (f *TableFormatter) filterBar(state view.State) string {
	st := f.styles

	if len(state.Filters) == 0 {
		return "Filters: " + st.Muted.Render("(none)")
	}

	tags := make([]string, len(state.Filters))
	for i, t := range state.Filters {
		tags[i] = st.Tag.Render(t.Display())
	}

	return "Filters: " + strings.Join(tags, " ")
}

func title(state view.State) string {
	switch {
	case state.PipelineName != "":
		return fmt.Sprintf("PipelineRuns for %s/%s", state.Namespace, state.PipelineName)
	case state.Namespace != "":
		return "PipelineRuns in " + state.Namespace
	default:
		return "PipelineRuns"
	}
}

func statusText(r *pipelinerun.Run) string {
	if r.Reason != "" && r.Reason != r.Status {
		return r.Status + " (" + r.Reason + ")"
	}

	return r.Status
}

func created(r *pipelinerun.Run) string {
	if !r.Started() {
		return "-"
	}

	return r.StartTime.UTC().Format(time.RFC3339)
}

func duration(r *pipelinerun.Run, now time.Time) string {
	if !r.Started() {
		return "-"
	}

	return r.Duration(now).Round(time.Second).String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// --- JSON / YAML ---

type docRun struct {
	Name           string            `json:"name"`
	Namespace      string            `json:"namespace,omitempty"`
	PipelineName   string            `json:"pipelineName,omitempty"`
	Status         string            `json:"status"`
	Reason         string            `json:"reason,omitempty"`
	StartTime      string            `json:"startTime,omitempty"`
	CompletionTime string            `json:"completionTime,omitempty"`
	Duration       string            `json:"duration,omitempty"`
	Release        string            `json:"release,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
}

type document struct {
	view.State
	Notifications []view.Notification `json:"notifications"`
	Runs          []docRun            `json:"runs"`
}

func newDocument(state view.State, now time.Time) document {
	runs := append([]*pipelinerun.Run(nil), state.Runs...)
	pipelinerun.SortByStartTime(runs)

	doc := document{
		State:         state,
		Notifications: state.Notifications(),
		Runs:          make([]docRun, 0, len(runs)),
	}

	if doc.Notifications == nil {
		doc.Notifications = []view.Notification{}
	}

	for _, r := range runs {
		d := docRun{
			Name:         r.Name,
			Namespace:    r.Namespace,
			PipelineName: r.PipelineName,
			Status:       r.Status,
			Reason:       r.Reason,
			Release:      r.Release(),
			Labels:       r.Labels,
		}

		if r.Started() {
			d.StartTime = r.StartTime.UTC().Format(time.RFC3339)
			d.Duration = r.Duration(now).Round(time.Second).String()
		}

		if !r.CompletionTime.IsZero() {
			d.CompletionTime = r.CompletionTime.UTC().Format(time.RFC3339)
		}

		doc.Runs = append(doc.Runs, d)
	}

	return doc
}

// JSONFormatter writes the page as JSON.
type JSONFormatter struct {
	now func() time.Time
}

// Format writes the page as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, state view.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(newDocument(state, f.now()))
}

// YAMLFormatter writes the page as YAML.
type YAMLFormatter struct {
	now func() time.Time
}

// Format writes the page as YAML.
func (f *YAMLFormatter) Format(w io.Writer, state view.State) error {
	data, err := sigsyaml.Marshal(newDocument(state, f.now()))
	if err != nil {
		return fmt.Errorf("serializing YAML: %w", err)
	}

	_, err = w.Write(data)

	return err
}

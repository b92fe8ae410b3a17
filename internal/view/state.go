package view

import (
	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// Notification kinds.
const (
	NotificationError   = "error"
	NotificationSuccess = "success"
)

// Notification is an inline message shown above the filter bar.
type Notification struct {
	Kind     string                `json:"kind"`
	Title    string                `json:"title"`
	Subtitle string                `json:"subtitle,omitempty"`
	Link     *labelfilter.HelpLink `json:"link,omitempty"`
}

// State is an immutable snapshot of the page for rendering.
type State struct {
	Location     string                       `json:"location"`
	Namespace    string                       `json:"namespace,omitempty"`
	PipelineName string                       `json:"pipelineName,omitempty"`
	Filters      labelfilter.Set              `json:"filters"`
	Runs         []*pipelinerun.Run           `json:"-"`
	Loading      bool                         `json:"loading"`
	Error        string                       `json:"error,omitempty"`
	Input        string                       `json:"input,omitempty"`
	InputState   labelfilter.InputState       `json:"-"`
	FilterError  *labelfilter.ValidationError `json:"filterError,omitempty"`
	Created      *CreatedRun                  `json:"created,omitempty"`
	CreateOpen   bool                         `json:"createOpen"`
}

// Notifications lists the messages to show, in display order.
func (s State) Notifications() []Notification {
	var out []Notification

	if s.Created != nil {
		out = append(out, Notification{
			Kind:     NotificationSuccess,
			Title:    "Successfully created PipelineRun",
			Subtitle: s.Created.Name,
			Link:     &labelfilter.HelpLink{URL: s.Created.URL, Text: s.Created.Name},
		})
	}

	if s.FilterError != nil {
		out = append(out, Notification{
			Kind:  NotificationError,
			Title: s.FilterError.Message,
			Link:  s.FilterError.Link,
		})
	}

	return out
}

// Snapshot returns the current page state.
func (p *Page) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		Location:     p.location.String(),
		Namespace:    p.query.Namespace,
		PipelineName: p.query.PipelineName,
		Filters:      append(labelfilter.Set{}, p.query.Filters...),
		Runs:         append([]*pipelinerun.Run(nil), p.runs...),
		Loading:      p.loading,
		Input:        p.input.Value(),
		InputState:   p.input.State(),
		FilterError:  p.input.Err(),
		CreateOpen:   p.createOpen,
	}

	if p.loadErr != nil {
		s.Error = p.loadErr.Error()
	}

	if p.created != nil {
		c := *p.created
		s.Created = &c
	}

	return s
}

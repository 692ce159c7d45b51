package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// TextPresenter implements ports.Presenter for a terminal: messages in brackets, units as
// one line of text.
type TextPresenter struct {
	mu    sync.Mutex
	w     io.Writer
	style *Style
}

var _ ports.Presenter = (*TextPresenter)(nil)

// NewTextPresenter creates a presenter writing to w. A nil style prints plain text.
func NewTextPresenter(w io.Writer, style *Style) *TextPresenter {
	if style == nil {
		style = NewStyle(w, false)
	}
	return &TextPresenter{w: w, style: style}
}

// Present implements ports.Presenter.
func (p *TextPresenter) Present(_ context.Context, req ports.PresentationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Message != "" {
		if _, err := fmt.Fprintln(p.w, p.style.Message(req.Message)); err != nil {
			return err
		}
	}
	if len(req.Units) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(p.w, visible(domain.JoinText(req.Units)))
	return err
}

// visible makes whitespace-only text readable: a lone newline or space is named.
func visible(text string) string {
	switch text {
	case "\n":
		return "newline"
	case " ":
		return "space"
	case "\t":
		return "tab"
	}
	return text
}

// JSONPresenter implements ports.Presenter as JSON Lines, for hosts driving the CLI.
type JSONPresenter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ ports.Presenter = (*JSONPresenter)(nil)

// NewJSONPresenter creates a presenter writing one JSON object per request to w.
func NewJSONPresenter(w io.Writer) *JSONPresenter {
	return &JSONPresenter{enc: json.NewEncoder(w)}
}

// Presentation is the JSON shape of a presentation request.
type Presentation struct {
	SessionID string `json:"session_id,omitempty"`
	Command   string `json:"command,omitempty"`
	Caret     string `json:"caret,omitempty"`
	Text      string `json:"text,omitempty"`
	Units     []Unit `json:"units,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Unit is the JSON shape of a content unit.
type Unit struct {
	Node  string `json:"node"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// NewPresentation converts a request to its JSON shape.
func NewPresentation(req ports.PresentationRequest) Presentation {
	out := Presentation{
		SessionID: req.SessionID,
		Command:   req.Command,
		Text:      domain.JoinText(req.Units),
		Message:   req.Message,
	}
	for _, u := range req.Units {
		out.Units = append(out.Units, Unit{Node: domain.NodeID(u.Node), Start: u.Start, End: u.End, Text: u.Text})
	}
	if !req.Position.IsNull() {
		out.Caret = req.Position.String()
	}
	return out
}

// Present implements ports.Presenter.
func (p *JSONPresenter) Present(_ context.Context, req ports.PresentationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(NewPresentation(req))
}

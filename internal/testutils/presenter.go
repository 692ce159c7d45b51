package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// Presenter records presentation requests.
type Presenter struct {
	mu   sync.Mutex
	reqs []ports.PresentationRequest
}

var _ ports.Presenter = (*Presenter)(nil)

func (p *Presenter) Present(_ context.Context, req ports.PresentationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return nil
}

// Take returns and forgets the requests presented so far.
func (p *Presenter) Take() []ports.PresentationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.reqs
	p.reqs = nil
	return out
}

// Texts renders requests as plain strings, messages in brackets.
func Texts(reqs []ports.PresentationRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.Message != "" {
			out = append(out, "["+r.Message+"]")
		}
		if len(r.Units) > 0 {
			out = append(out, domain.JoinText(r.Units))
		}
	}
	return out
}

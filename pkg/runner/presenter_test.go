package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPresenter(t *testing.T) {
	p := memory.Handle("p")
	tests := []struct {
		name string
		req  ports.PresentationRequest
		want string
	}{
		{
			name: "units",
			req: ports.PresentationRequest{Units: []domain.ContentUnit{
				{Node: p, Start: 0, End: 6, Text: "Hello "},
				{Node: memory.Handle("a"), Start: 0, End: 5, Text: "world"},
			}},
			want: "Hello world\n",
		},
		{
			name: "message and units",
			req: ports.PresentationRequest{
				Message: "wrapping",
				Units:   []domain.ContentUnit{{Node: p, Start: 0, End: 3, Text: "One"}},
			},
			want: "[wrapping]\nOne\n",
		},
		{
			name: "newline is named",
			req:  ports.PresentationRequest{Units: []domain.ContentUnit{{Node: p, Start: 3, End: 4, Text: "\n"}}},
			want: "newline\n",
		},
		{
			name: "nothing",
			req:  ports.PresentationRequest{Command: "next_word"},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewTextPresenter(&buf, nil).Present(context.Background(), tt.req))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestJSONPresenter(t *testing.T) {
	var buf bytes.Buffer
	pr := NewJSONPresenter(&buf)
	req := ports.PresentationRequest{
		SessionID: "s1",
		Command:   "next_word",
		Position:  domain.At(memory.Handle("p"), 5),
		Units:     []domain.ContentUnit{{Node: memory.Handle("p"), Start: 0, End: 5, Text: "Hello"}},
	}
	require.NoError(t, pr.Present(context.Background(), req))
	require.NoError(t, pr.Present(context.Background(), ports.PresentationRequest{SessionID: "s1", Message: "location not found"}))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "s1", first["session_id"])
	assert.Equal(t, "next_word", first["command"])
	assert.Equal(t, "p@5", first["caret"])
	assert.Equal(t, "Hello", first["text"])
	require.Len(t, first["units"], 1)
	unit := first["units"].([]any)[0].(map[string]any)
	assert.Equal(t, "p", unit["node"])
	assert.Equal(t, "Hello", unit["text"])

	assert.Equal(t, "location not found", second["message"])
	assert.NotContains(t, second, "caret")
	assert.NotContains(t, second, "units")
}

package surface

import (
	"encoding/json"
	"io"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// JSONRenderer marshals a Result to indented JSON. Infinite payback encodes
// as null.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *scoring.Result) error {
	return WriteJSON(w, result)
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package repositories

import (
	"bytes"
	"encoding/json"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// NewRecordNotFoundError reports a missing stored record
func NewRecordNotFoundError(kind, id string) error {
	return dnderr.NotFoundf("%s not found: %s", kind, id).
		WithMeta("kind", kind).
		WithMeta("id", id)
}

// EncodeJSON renders v the way stored records are written: two-space indent,
// non-ASCII and HTML characters left as-is, trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode record")
	}
	return buf.Bytes(), nil
}

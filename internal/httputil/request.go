package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"rxops/internal/config"
)

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size to prevent abuse and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// Limit request body (requires w for proper 413 response). Rich content is
	// the largest JSON payload we accept; leave headroom for the envelope.
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRichContentBytes+64<<10)

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

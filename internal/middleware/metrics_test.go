package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/api/documents", "/api/documents"},
		{"/api/documents/7f3c2a1e-0b4d-4e8f-9a6c-1d2e3f4a5b6c", "/api/documents/{id}"},
		{"/api/documents/7f3c2a1e-0b4d-4e8f-9a6c-1d2e3f4a5b6c/tree", "/api/documents/{id}/tree"},
		{"/api/nodes/7F3C2A1E-0B4D-4E8F-9A6C-1D2E3F4A5B6C/move", "/api/nodes/{id}/move"},
		{"/api/documents/not-a-uuid", "/api/documents/not-a-uuid"},
		{"/api/documents/7f3c2a1e-0b4d-4e8f-9a6c-1d2e3f4a5bZZ", "/api/documents/7f3c2a1e-0b4d-4e8f-9a6c-1d2e3f4a5bZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bodySize int
		wantErr  bool
	}{
		{"empty body", 0, false},
		{"under limit", 512, false},
		{"exactly at limit", 1024, false},
		{"over limit", 1025, true},
		{"large restore upload", 1 << 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				read   int
				errGot error
			)
			handler := MaxBodySize(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				read, errGot = len(data), err
			}))
			req := httptest.NewRequest("POST", "/api/admin-restore", bytes.NewReader(make([]byte, tt.bodySize)))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !tt.wantErr {
				if errGot != nil || read != tt.bodySize {
					t.Errorf("read %d bytes, err %v; want %d bytes", read, errGot, tt.bodySize)
				}
				return
			}
			var tooLarge *http.MaxBytesError
			if !errors.As(errGot, &tooLarge) || tooLarge.Limit != 1024 {
				t.Errorf("expected *http.MaxBytesError with limit 1024, got %v", errGot)
			}
		})
	}
}

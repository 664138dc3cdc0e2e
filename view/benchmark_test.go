package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/declarest/restkit/api"
)

// BenchmarkWrappedView measures the full decoration pipeline: method gate,
// permission, query normalization, payload extraction and validation.
func BenchmarkWrappedView(b *testing.B) {
	v := MustWrap(func(r *http.Request, in Input) (*api.Response, error) {
		return api.OK(in.Data), nil
	}, Config{Schema: orderSchema, Logger: quiet})

	body := `{"foo": "bar", "bar": 5}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := httptest.NewRequest(http.MethodPost, "/orders?page=3", strings.NewReader(body))
		w := httptest.NewRecorder()
		v.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			b.Fatalf("Failed request: status %d", w.Code)
		}
	}
}

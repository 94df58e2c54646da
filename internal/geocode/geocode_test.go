package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func server(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "40.5,-120.25", r.URL.Query().Get("latlng"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "neighborhood", r.URL.Query().Get("result_type"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"results":[{"formatted_address":"Mission District, San Francisco, CA, USA"}],"status":"OK"}`

func TestReverseGeocode(t *testing.T) {
	srv := server(t, http.StatusOK, okBody)

	g := New("secret", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	assert.Equal(t, "Mission District, San Francisco", g.ReverseGeocode(context.Background(), 40.5, -120.25))

	g = New("secret", WithEndpoint(srv.URL), WithPolicy(PolicyDropLast))
	assert.Equal(t, "Mission District, San Francisco, CA", g.ReverseGeocode(context.Background(), 40.5, -120.25))
}

func TestReverseGeocode_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no results array", http.StatusOK, `{"status":"ZERO_RESULTS"}`},
		{"empty results", http.StatusOK, `{"results":[]}`},
		{"address not a string", http.StatusOK, `{"results":[{"formatted_address":7}]}`},
		{"malformed json", http.StatusOK, `{"results":[`},
		{"server error", http.StatusInternalServerError, okBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server(t, tt.status, tt.body)
			g := New("secret", WithEndpoint(srv.URL))
			assert.Equal(t, "", g.ReverseGeocode(context.Background(), 40.5, -120.25))
		})
	}
}

func TestReverseGeocode_Unreachable(t *testing.T) {
	g := New("secret", WithEndpoint("http://127.0.0.1:1"))
	assert.Equal(t, "", g.ReverseGeocode(context.Background(), 1, 2))
}

func TestReverseGeocode_Canceled(t *testing.T) {
	srv := server(t, http.StatusOK, okBody)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New("secret", WithEndpoint(srv.URL))
	assert.Equal(t, "", g.ReverseGeocode(ctx, 40.5, -120.25))
}

func TestPolicyTruncate(t *testing.T) {
	assert.Equal(t, "A, B", PolicyFirstTwo.Truncate("A, B, C, D"))
	assert.Equal(t, "A", PolicyFirstTwo.Truncate("A"))
	assert.Equal(t, "A, B, C", PolicyDropLast.Truncate("A, B, C, D, E"))
	assert.Equal(t, "A, B", PolicyDropLast.Truncate("A, B, C"))
	assert.Equal(t, "", PolicyDropLast.Truncate("A"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFirstTwo, p)

	p, err = ParsePolicy("DROP-LAST")
	require.NoError(t, err)
	assert.Equal(t, PolicyDropLast, p)

	_, err = ParsePolicy("all")
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	g := New("k y")
	assert.Equal(t, DefaultEndpoint+"?latlng=40.4333,-120.9833&key=k+y&result_type=neighborhood", g.URL(40.4333, -120.9833))
}

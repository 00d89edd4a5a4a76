package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func preflight(origin, method string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/overlays/x", nil)
	req.Header.Set("Origin", origin)
	if method != "" {
		req.Header.Set("Access-Control-Request-Method", method)
	}
	return req
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, ParseOrigins(" http://a.test, ,http://b.test "))
	assert.Empty(t, ParseOrigins(""))
}

func TestCORS_allow_list(t *testing.T) {
	h := CORS("http://a.test, http://b.test")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/overlays", nil)
	req.Header.Set("Origin", "http://b.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "http://b.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	req.Header.Set("Origin", "http://c.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_preflight(t *testing.T) {
	h := CORS("http://a.test")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight("http://a.test", http.MethodPut))
	assert.NotEqual(t, http.StatusTeapot, rec.Code, "preflight is answered by the middleware")
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://a.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPut, rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight("http://evil.test", http.MethodPut))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_plain_options_reaches_handler(t *testing.T) {
	h := CORS("*")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight("http://a.test", ""))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/overlays", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORS_wildcard(t *testing.T) {
	for _, origins := range []string{"*", ""} {
		h := CORS(origins)(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, preflight("http://anywhere.test", http.MethodDelete))

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "origins %q", origins)
		assert.Equal(t, http.MethodDelete, rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestError_body(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Error(rec, http.StatusBadRequest, "Invalid overlay type"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Invalid overlay type", body.Error)
}

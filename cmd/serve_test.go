//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/dataset"
	"github.com/sells-group/crop-advisor/internal/matcher"
)

func testMux(t *testing.T, sc config.ServerConfig) http.Handler {
	t.Helper()
	return buildMux(dataset.Sample(), matcher.New(matcher.DefaultConfig()), sc)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(nil, nil, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_RequestIDPropagated(t *testing.T) {
	mux := buildMux(nil, nil, config.ServerConfig{})
	id := "3f0c3a52-2b7c-4b8e-9a47-0d6f6b0c1d2e"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get(requestIDHeader))

	// Malformed IDs are replaced.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.NotEqual(t, "not-a-uuid", rr.Header().Get(requestIDHeader))
}

func TestBuildMux_Crops(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/crops", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var crops []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &crops))
	assert.Len(t, crops, 25)
	assert.Equal(t, "Corn", crops[0]["crop"])
}

func TestBuildMux_CropsEmptyTable(t *testing.T) {
	mux := buildMux(nil, nil, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/crops", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestServe_RecommendJSONExact(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	rr := postJSON(t, mux, `{"soil-type":"Clay","ph-level":6.0,"nitrogen":"100","phosphorus":40,"potassium":40}`)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "exact", body["match"])
	assert.Equal(t, []any{
		map[string]any{"Crop": "Rice"},
		map[string]any{"Crop": "Sorghum"},
	}, body["suitable_crops"])
	improvements := body["improvements"].([]any)
	require.Len(t, improvements, 2)
	assert.True(t, strings.HasPrefix(improvements[0].(string), "Rice: "))
	assert.NotContains(t, body, "soil_improvement")
	assert.NotContains(t, body, "error")
}

func TestServe_RecommendFormFallback(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	form := url.Values{
		"soil-type":  {"clay"},
		"ph-level":   {"6.0"},
		"nitrogen":   {"130"},
		"phosphorus": {"40"},
		"potassium":  {"40"},
		"threshold":  {"25"},
	}
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "fallback", body["match"])
	assert.Len(t, body["suitable_crops"], 3)
	assert.Contains(t, body["soil_improvement"], "raised beds")
}

func TestServe_RecommendNoMatch(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	rr := postJSON(t, mux, `{"soil-type":"sandy","ph-level":9.5,"nitrogen":300,"phosphorus":5,"potassium":5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"match":"none","error":"No suitable crops found for the given soil conditions."}`,
		rr.Body.String())
}

func TestServe_RecommendTrimsSoilType(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	rr := postJSON(t, mux, `{"soil-type":" clay ","ph-level":6.0,"nitrogen":100,"phosphorus":40,"potassium":40}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "exact", decodeBody(t, rr)["match"])
}

func TestServe_RecommendEmptyTable(t *testing.T) {
	mux := buildMux(nil, nil, config.ServerConfig{})

	rr := postJSON(t, mux, `{"soil-type":"clay","ph-level":6,"nitrogen":100,"phosphorus":40,"potassium":40}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "none", decodeBody(t, rr)["match"])
}

func TestServe_RecommendBadInput(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed json", `{"soil-type":`, "invalid request body"},
		{"not a number", `{"soil-type":"clay","ph-level":"acid","nitrogen":1,"phosphorus":1,"potassium":1}`, "invalid request body"},
		{"missing fields", `{"soil-type":"clay","ph-level":6}`, "nitrogen is required"},
		{"missing soil", `{"ph-level":6,"nitrogen":1,"phosphorus":1,"potassium":1}`, "soil-type is required"},
		{"negative threshold", `{"soil-type":"clay","ph-level":6,"nitrogen":1,"phosphorus":1,"potassium":1,"threshold":-2}`, "threshold must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, mux, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decodeBody(t, rr)["error"], tt.wantErr)
		})
	}
}

func TestServe_RecommendFormRejectsNaN(t *testing.T) {
	mux := testMux(t, config.ServerConfig{})

	form := url.Values{
		"soil-type": {"clay"}, "ph-level": {"NaN"}, "nitrogen": {"1"}, "phosphorus": {"1"}, "potassium": {"Inf"},
	}
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	errMsg := decodeBody(t, rr)["error"].(string)
	assert.Contains(t, errMsg, "ph-level: must be finite")
	assert.Contains(t, errMsg, "potassium: must be finite")
}

func TestBuildMux_RateLimit(t *testing.T) {
	mux := testMux(t, config.ServerConfig{RateLimit: 0.001, RateBurst: 1})

	get := func(path string) int {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, get("/crops"))
	assert.Equal(t, http.StatusTooManyRequests, get("/crops"))
	// Health checks are never limited.
	assert.Equal(t, http.StatusOK, get("/health"))
}

func TestBuildMux_CORS(t *testing.T) {
	mux := testMux(t, config.ServerConfig{CORSOrigins: []string{"https://farm.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "https://farm.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, "https://farm.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
	assert.Equal(t, 0, resolvePort(0, 0))
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mux := buildMux(nil, nil, config.ServerConfig{})

	// Find a free port.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- startServer(ctx, mux, port)
	}()

	// Wait for server to be ready.
	var ready bool
	for i := 0; i < 50; i++ {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready in time")

	// Trigger graceful shutdown.
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	err = startServer(context.Background(), http.NotFoundHandler(), port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server listen")
}

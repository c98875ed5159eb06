package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/config"
	"printforge/internal/meshstore"
	"printforge/internal/slicer"
)

// fakeEngine implements slicer.Engine without spawning a process.
type fakeEngine struct {
	gcode       string
	writeOutput bool
	calls       int
}

func (f *fakeEngine) Slice(_ context.Context, args []string) (string, error) {
	f.calls++

	if f.writeOutput {
		for i, arg := range args[:len(args)-1] {
			if arg == "--output" {
				if err := os.WriteFile(args[i+1], []byte(f.gcode), 0o600); err != nil {
					return "", err
				}
			}
		}
	}

	return "", nil
}

func newTestServer(engine slicer.Engine) (*Server, *meshstore.Store) {
	cfg := config.Default()
	store := meshstore.New(time.Minute)

	var runner *slicer.Runner
	if engine != nil {
		runner = slicer.NewRunnerWithEngine(engine, time.Minute)
	} else {
		runner = slicer.NewRunner("printforge-test-no-such-binary", time.Minute)
	}

	return New(cfg, store, runner), store
}

func newUploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dimensions", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

const tenVertexOBJ = `# test model
v 0 0 0
v 10 0 0
v 10 20 0
v 0 20 0
v 0 0 5
v 10 0 5
v 10 20 5
v 0 20 5
v 5 10 2.5
v 2 2 1
f 1 2 3
`

func TestDimensionsHandler(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		content        []byte
		expectedStatus int
	}{
		{
			name:           "valid OBJ upload",
			filename:       "model.obj",
			content:        []byte(tenVertexOBJ),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "disallowed extension",
			filename:       "model.step",
			content:        []byte("whatever"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty file",
			filename:       "model.stl",
			content:        nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "corrupt STL",
			filename:       "model.stl",
			content:        []byte("this is not a mesh at all"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(nil)

			w := httptest.NewRecorder()
			server.DimensionsHandler(w, newUploadRequest(t, tt.filename, tt.content))

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp DimensionsResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

				assert.Equal(t, 10.0, resp.X)
				assert.Equal(t, 20.0, resp.Y)
				assert.Equal(t, 5.0, resp.Z)
				assert.Equal(t, 10, resp.VertexCount)
				assert.NotEmpty(t, resp.MeshID)
				assert.Equal(t, tt.filename, resp.FileName)
			}
		})
	}
}

func TestDimensionsHandlerMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(nil)

	w := httptest.NewRecorder()
	server.DimensionsHandler(w, httptest.NewRequest(http.MethodGet, "/api/dimensions", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func validSliceBody(t *testing.T, overrides map[string]any) []byte {
	t.Helper()

	body := map[string]any{
		"designUnit":      "mm",
		"material":        "PLA",
		"materialType":    "filament",
		"nozzleSize":      0.4,
		"fillDensity":     20,
		"supportMaterial": false,
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
		} else {
			body[k] = v
		}
	}

	data, err := json.Marshal(body)
	require.NoError(t, err)

	return data
}

func postSlice(server *Server, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/slice", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.SliceHandler(w, req)

	return w
}

func TestSliceHandlerValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		wantDetails string
	}{
		{
			name:        "nozzle size out of range",
			body:        nil, // filled below
			wantDetails: "nozzleSize",
		},
		{
			name:        "missing material",
			wantDetails: "material",
		},
		{
			name:        "missing fill density",
			wantDetails: "fillDensity",
		},
		{
			name:        "invalid JSON",
			body:        []byte("{not json"),
			wantDetails: "body",
		},
	}

	engine := &fakeEngine{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, store := newTestServer(engine)
			store.Put("cube.obj", "obj", []byte(tenVertexOBJ))

			body := tt.body
			switch tt.name {
			case "nozzle size out of range":
				body = validSliceBody(t, map[string]any{"nozzleSize": 1.5})
			case "missing material":
				body = validSliceBody(t, map[string]any{"material": nil})
			case "missing fill density":
				body = validSliceBody(t, map[string]any{"fillDensity": nil})
			}

			w := postSlice(server, body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, ErrorTypeValidation, resp.Type)
			assert.Contains(t, resp.Details, tt.wantDetails)
		})
	}

	// Validation failures never reach the engine.
	assert.Equal(t, 0, engine.calls)
}

func TestSliceHandlerNoMeshRetained(t *testing.T) {
	server, _ := newTestServer(&fakeEngine{})

	w := postSlice(server, validSliceBody(t, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no mesh uploaded")
}

func TestSliceHandlerEngineUnavailable(t *testing.T) {
	// End to end: upload a valid OBJ, then submit with no engine binary
	// on the system. The result must be the 503 path, not a generic 500.
	server, _ := newTestServer(nil)

	w := httptest.NewRecorder()
	server.DimensionsHandler(w, newUploadRequest(t, "model.obj", []byte(tenVertexOBJ)))
	require.Equal(t, http.StatusOK, w.Code)

	w2 := postSlice(server, validSliceBody(t, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w2.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp))
	assert.Equal(t, "engine_unavailable", resp.Code)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestSliceHandlerSuccess(t *testing.T) {
	engine := &fakeEngine{
		gcode:       "G28\n; estimated printing time = 3h 12m\n",
		writeOutput: true,
	}
	server, _ := newTestServer(engine)

	w := httptest.NewRecorder()
	server.DimensionsHandler(w, newUploadRequest(t, "model.obj", []byte(tenVertexOBJ)))
	require.Equal(t, http.StatusOK, w.Code)

	var dims DimensionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dims))

	body := validSliceBody(t, map[string]any{"meshId": dims.MeshID, "supportMaterial": true})
	w2 := postSlice(server, body)

	require.Equal(t, http.StatusOK, w2.Code)

	var resp SliceResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp))

	assert.Equal(t, "3h 12m", resp.PrintTime)
	assert.Equal(t, "model.obj", resp.FileName)
	assert.Equal(t, "PLA", resp.Material)
	assert.True(t, resp.SupportMaterial)
	assert.False(t, resp.ProcessedAt.IsZero())
	assert.Equal(t, 1, engine.calls)
}

func TestHealthHandler(t *testing.T) {
	server, store := newTestServer(nil)
	store.Put("m.stl", "stl", []byte("data"))

	w := httptest.NewRecorder()
	server.HealthHandler(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.EngineAvailable)
	assert.Equal(t, 1, resp.RetainedMeshes)
}

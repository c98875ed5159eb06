package webserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"printforge/internal/config"
	"printforge/internal/material"
	"printforge/internal/mesh"
	"printforge/internal/meshstore"
	"printforge/internal/slicer"
)

// Server ties the mesh store and the slicing runner to the HTTP surface.
type Server struct {
	cfg    config.Config
	store  *meshstore.Store
	runner *slicer.Runner
}

func New(cfg config.Config, store *meshstore.Store, runner *slicer.Runner) *Server {
	return &Server{cfg: cfg, store: store, runner: runner}
}

// Routes builds the HTTP handler with compression applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dimensions", s.DimensionsHandler)
	mux.HandleFunc("/api/slice", s.SliceHandler)
	mux.HandleFunc("/api/health", s.HealthHandler)

	return CompressionMiddleware(mux)
}

// DimensionsResponse reports the bounding box of an uploaded mesh.
type DimensionsResponse struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	VertexCount int     `json:"vertexCount"`
	MeshID      string  `json:"meshId"`
	FileName    string  `json:"fileName"`
}

func (s *Server) DimensionsHandler(w http.ResponseWriter, r *http.Request) {
	log := slog.With("handler", "DimensionsHandler")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Info("Received mesh upload", "remote_addr", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(MaxFormSize); err != nil {
		log.Error("Failed to parse upload form", "error", err)
		WriteErrorStatus(w, &UploadError{Reason: fmt.Sprintf("form parsing error: %v", err)}, http.StatusBadRequest)

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("Missing file field", "error", err)
		WriteErrorStatus(w, &UploadError{Reason: "no mesh file in upload"}, http.StatusBadRequest)

		return
	}
	defer file.Close()

	ext, err := ValidateMeshUpload(header, s.cfg.MaxUploadSize)
	if err != nil {
		log.Error("Upload rejected", "filename", header.Filename, "error", err)
		WriteError(w, err)

		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read upload", "error", err)
		WriteErrorStatus(w, &UploadError{Reason: fmt.Sprintf("file reading error: %v", err)}, http.StatusBadRequest)

		return
	}

	points, err := mesh.Decode(data, ext)
	if err != nil {
		log.Error("Mesh decode failed", "filename", header.Filename, "error", err)
		WriteError(w, err)

		return
	}

	dims, err := mesh.ComputeExtents(points)
	if err != nil {
		log.Error("Bounding box computation failed", "error", err)
		WriteError(w, err)

		return
	}

	meshID := s.store.Put(header.Filename, ext, data)

	log.Info("Mesh retained", "meshId", meshID, "filename", header.Filename, "vertices", dims.VertexCount)

	writeJSON(w, http.StatusOK, DimensionsResponse{
		X:           dims.X,
		Y:           dims.Y,
		Z:           dims.Z,
		VertexCount: dims.VertexCount,
		MeshID:      meshID,
		FileName:    header.Filename,
	})
}

// SliceRequest is the submit-configuration body. MeshID is optional; when
// absent the most recent upload is sliced.
type SliceRequest struct {
	slicer.PrintConfig
	MeshID string `json:"meshId,omitempty"`
}

// SliceResponse echoes the configuration plus the slicing outcome.
type SliceResponse struct {
	slicer.PrintConfig
	PrintTime   string    `json:"printTime"`
	FileName    string    `json:"fileName"`
	ProcessedAt time.Time `json:"processedAt"`
}

// requiredConfigFields are checked for presence independently so each
// missing field is reported by name.
var requiredConfigFields = []string{
	"designUnit",
	"material",
	"materialType",
	"nozzleSize",
	"fillDensity",
	"supportMaterial",
}

func (s *Server) SliceHandler(w http.ResponseWriter, r *http.Request) {
	log := slog.With("handler", "SliceHandler")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Info("Received slice request", "remote_addr", r.RemoteAddr)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxConfigBodySize))
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		WriteError(w, &slicer.ValidationError{Field: "body", Reason: "unreadable request body"})

		return
	}

	if !gjson.ValidBytes(body) {
		WriteError(w, &slicer.ValidationError{Field: "body", Reason: "request body is not valid JSON"})
		return
	}

	for _, field := range requiredConfigFields {
		if !gjson.GetBytes(body, field).Exists() {
			WriteError(w, &slicer.ValidationError{Field: field, Reason: "required field is missing"})
			return
		}
	}

	var req SliceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, &slicer.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		log.Error("Configuration rejected", "error", err)
		WriteError(w, err)

		return
	}

	entry, ok := s.store.Get(req.MeshID)
	if !ok {
		WriteError(w, &slicer.ValidationError{Field: "meshId", Reason: "no mesh uploaded, or the upload expired"})
		return
	}

	if !s.runner.Available() {
		log.Error("Slice request with engine unavailable")
		WriteError(w, slicer.ErrEngineUnavailable)

		return
	}

	profile := material.Lookup(req.Material)
	if !material.Known(req.Material) {
		log.Warn("Unknown material, using default profile", "material", req.Material)
	}

	result, err := s.runner.Run(r.Context(), entry.Data, entry.Ext, req.PrintConfig, profile)
	if err != nil {
		log.Error("Slicing failed", "meshId", entry.ID, "error", err)
		WriteError(w, err)

		return
	}

	log.Info("Slice request processed", "meshId", entry.ID, "printTime", result.PrintTime)

	writeJSON(w, http.StatusOK, SliceResponse{
		PrintConfig: req.PrintConfig,
		PrintTime:   result.PrintTime,
		FileName:    entry.FileName,
		ProcessedAt: time.Now().UTC(),
	})
}

// HealthResponse reports service liveness and engine availability.
type HealthResponse struct {
	Status          string `json:"status"`
	EngineAvailable bool   `json:"engineAvailable"`
	RetainedMeshes  int    `json:"retainedMeshes"`
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		EngineAvailable: s.runner.Available(),
		RetainedMeshes:  s.store.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

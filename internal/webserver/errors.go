package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"printforge/internal/mesh"
	"printforge/internal/slicer"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpload     ErrorType = "upload"
	ErrorTypeMeshFormat ErrorType = "mesh_format"
	ErrorTypeEngine     ErrorType = "engine"
	ErrorTypeInternal   ErrorType = "internal"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Details     string    `json:"details"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// CategorizeError maps an error to its response body and HTTP status.
func CategorizeError(err error) (ErrorResponse, int) {
	var validationErr *slicer.ValidationError
	if errors.As(err, &validationErr) {
		return ErrorResponse{
			Type:        ErrorTypeValidation,
			Code:        "invalid_parameters",
			Title:       "Invalid configuration",
			Description: fmt.Sprintf("The %s field is missing or out of range.", validationErr.Field),
			Details:     err.Error(),
			Suggestions: []string{
				"Check that all required fields are present",
				"Nozzle size must be between 0.2 and 1.0 mm",
				"Fill density must be between 0 and 100 percent",
			},
		}, http.StatusBadRequest
	}

	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return ErrorResponse{
			Type:        ErrorTypeUpload,
			Code:        "upload_rejected",
			Title:       "Upload rejected",
			Description: "The uploaded file was rejected before decoding.",
			Details:     err.Error(),
			Suggestions: []string{
				"Upload a non-empty .stl or .obj file",
				"Check the file name and size",
			},
		}, http.StatusBadRequest
	}

	switch {
	case errors.Is(err, mesh.ErrFormat):
		return ErrorResponse{
			Type:        ErrorTypeMeshFormat,
			Code:        "unrecognized_format",
			Title:       "Unrecognized mesh format",
			Description: "The file could not be decoded as binary STL, ASCII STL or OBJ.",
			Details:     err.Error(),
			Suggestions: []string{
				"Re-export the model from your CAD tool",
				"Verify the file is a valid STL or OBJ mesh",
			},
		}, http.StatusInternalServerError

	case errors.Is(err, mesh.ErrEmptyMesh), errors.Is(err, mesh.ErrEmptyInput):
		return ErrorResponse{
			Type:        ErrorTypeMeshFormat,
			Code:        "empty_mesh",
			Title:       "Empty mesh",
			Description: "The file decoded successfully but contains no vertices.",
			Details:     err.Error(),
			Suggestions: []string{
				"Verify the model is not empty",
				"Re-export the model from your CAD tool",
			},
		}, http.StatusInternalServerError

	case errors.Is(err, slicer.ErrEngineUnavailable):
		return ErrorResponse{
			Type:        ErrorTypeEngine,
			Code:        "engine_unavailable",
			Title:       "Slicing engine unavailable",
			Description: "The external slicing engine binary could not be found.",
			Details:     err.Error(),
			Suggestions: []string{
				"Install the slicing engine and set PRINTFORGE_ENGINE_PATH to its location",
				"Alternatively, slice the model locally and print the pre-sliced G-code",
			},
		}, http.StatusServiceUnavailable

	case errors.Is(err, slicer.ErrTimeout):
		return ErrorResponse{
			Type:        ErrorTypeEngine,
			Code:        "engine_timeout",
			Title:       "Slicing timed out",
			Description: "The slicing engine exceeded its time limit and was terminated.",
			Details:     err.Error(),
			Suggestions: []string{
				"Try a smaller or simpler model",
				"Increase the slice_timeout setting",
			},
		}, http.StatusGatewayTimeout

	case errors.Is(err, slicer.ErrMissingOutput):
		return ErrorResponse{
			Type:        ErrorTypeEngine,
			Code:        "engine_no_output",
			Title:       "Slicing failed",
			Description: "The slicing engine finished without producing G-code.",
			Details:     err.Error(),
			Suggestions: []string{
				"Check the engine diagnostics in the details",
				"Verify the uploaded mesh is printable",
			},
		}, http.StatusInternalServerError
	}

	return ErrorResponse{
		Type:        ErrorTypeInternal,
		Code:        "processing_error",
		Title:       "Processing failed",
		Description: "An unexpected error occurred while processing the request.",
		Details:     err.Error(),
		Suggestions: []string{
			"Try the request again",
			"Check that the uploaded file is valid",
		},
	}, http.StatusInternalServerError
}

// WriteError writes a structured error response as JSON with the status
// derived from the error's category.
func WriteError(w http.ResponseWriter, err error) {
	resp, status := CategorizeError(err)
	writeErrorResponse(w, resp, status)
}

// WriteErrorStatus writes a structured error response with an explicit
// status, for failures detected before any typed error exists.
func WriteErrorStatus(w http.ResponseWriter, err error, status int) {
	resp, _ := CategorizeError(err)
	writeErrorResponse(w, resp, status)
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if jsonErr := json.NewEncoder(w).Encode(resp); jsonErr != nil {
		// Fallback to plain text if JSON encoding fails
		fmt.Fprintf(w, "Error: %s", resp.Details)
	}
}

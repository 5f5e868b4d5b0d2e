package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"match-highlights/application/batch"
	"match-highlights/application/clip"
	uploads "match-highlights/application/distribution"
	"match-highlights/domain/distribution"
	"match-highlights/domain/media"

	"github.com/go-chi/chi/v5"
)

const (
	maxJSONBody      = 10 << 20
	maxMultipartMem  = 32 << 20
	defaultMatchID   = "test-match"
	defaultCutAction = "manual"
)

// NewRouter registers every endpoint
func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler)
	r.Post("/upload-segment", uploadSegmentHandler(cfg))
	r.Post("/auto-generate-clips", autoGenerateHandler(cfg))
	r.Post("/generate-clips", generateClipHandler(cfg))
	r.Get("/clips", listClipsHandler(cfg))
	r.Get("/jobs/{id}", getJobHandler(cfg))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func uploadSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
			WriteError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		start, err := media.ParseSeconds(r.FormValue("segment_start_time_in_game"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid segment_start_time_in_game: "+err.Error())
			return
		}

		duration := r.FormValue("end_time")
		if duration == "" {
			duration = r.FormValue("duration")
		}

		result, err := cfg.Segments.UploadSegment(r.Context(), uploads.SegmentInput{
			MatchID:         strings.TrimSpace(r.FormValue("match_id")),
			StartTimeInGame: start,
			Duration:        duration,
			FileName:        header.Filename,
			Body:            file,
		})
		if err != nil {
			WriteError(w, statusFor(err), err.Error())
			return
		}

		WriteJSON(w, http.StatusOK, UploadSegmentResponse{Success: true, Clip: result.Clip, MatchID: result.MatchID})
	}
}

func autoGenerateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AutoGenerateRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		job, err := cfg.Batches.Submit(r.Context(), req.Batch())
		if err != nil {
			WriteError(w, statusFor(err), err.Error())
			return
		}

		WriteJSON(w, http.StatusOK, AutoGenerateResponse{
			Success: true,
			Message: "processing",
			MatchID: job.MatchID,
			JobID:   job.ID,
		})
	}
}

func generateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		input := clip.CutInput{
			FileID:      req.FileID,
			StartSec:    *req.StartTime,
			DurationSec: *req.Duration,
			MatchID:     req.MatchID,
			ActionType:  req.ActionType,
		}
		if input.MatchID == "" {
			input.MatchID = defaultMatchID
		}
		if input.ActionType == "" {
			input.ActionType = defaultCutAction
		}

		c, err := cfg.Cuts.Cut(r.Context(), input)
		if err != nil {
			WriteError(w, statusFor(err), err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, c)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := distribution.ListFilter{MatchID: r.URL.Query().Get("match_id")}

		if v := r.URL.Query().Get("created_after"); v != "" {
			t, err := parseCreatedAfter(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid created_after: "+err.Error())
				return
			}
			filter.CreatedAfter = t
		}

		clips, err := cfg.Segments.ListClips(r.Context(), filter)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, ClipsResponse{Success: true, Clips: clips})
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Batches.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, statusFor(err), err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, job)
	}
}

// decodeJSON reads and validates a JSON body, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: formatValidationErrors(err),
		})
		return false
	}
	return true
}

// parseCreatedAfter accepts RFC3339 or unix milliseconds
func parseCreatedAfter(v string) (time.Time, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, batch.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrJobQueueFull), errors.Is(err, batch.ErrNotAccepting):
		return http.StatusServiceUnavailable
	case errors.Is(err, distribution.ErrUploadFailure):
		return http.StatusBadGateway
	case errors.Is(err, media.ErrTranscodeFailure):
		return http.StatusInternalServerError
	case errors.Is(err, clip.ErrInvalidCut), errors.Is(err, uploads.ErrInvalidSegment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/bect/levelshare/pkg/levelshare"
)

// multipartSlack covers form boundaries and text fields on top of the blob
// ceiling when limiting a publish request body.
const multipartSlack = 1 << 20

// LevelHandler handles publishing, listing, fetching and deleting levels.
type LevelHandler struct {
	content     levelshare.Service
	uploadLimit int64
}

// NewLevelHandler creates a new level handler
func NewLevelHandler(content levelshare.Service, uploadLimit int64) *LevelHandler {
	if uploadLimit <= 0 {
		uploadLimit = levelshare.DefaultUploadLimit
	}
	return &LevelHandler{content: content, uploadLimit: uploadLimit}
}

// LevelResponse is the response body for a single level.
type LevelResponse struct {
	Success bool              `json:"success"`
	Level   *levelshare.Level `json:"level"`
}

// LevelListResponse is the response body for level listings.
type LevelListResponse struct {
	Success bool                `json:"success"`
	Levels  []*levelshare.Level `json:"levels"`
}

// Publish accepts a multipart form with fields title, description, one
// payload file and up to three images files, and creates a level.
func (h *LevelHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	// The service enforces the exact ceiling; the body limit only shields
	// the server from unbounded uploads.
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+multipartSlack)
	if err := r.ParseMultipartForm(h.uploadLimit + multipartSlack); err != nil {
		writeError(w, r, levelshare.ErrPayloadTooLarge)
		return
	}
	defer r.MultipartForm.RemoveAll()

	payload, err := readFormFile(r, "payload")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var images [][]byte
	for _, header := range r.MultipartForm.File["images"] {
		img, err := readFileHeader(header)
		if err != nil {
			writeError(w, r, err)
			return
		}
		images = append(images, img)
	}

	level, err := h.content.Publish(r.Context(), actor, levelshare.PublishRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Payload:     payload,
		Images:      images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("level published", "level_id", level.ID, "creator", actor.Username)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, LevelResponse{Success: true, Level: level})
}

// ListLevels lists levels, optionally filtered by ?creator= or searched
// with ?q=.
func (h *LevelHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		levels, err := h.content.SearchLevels(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		render.JSON(w, r, LevelListResponse{Success: true, Levels: levels})
		return
	}

	levels, err := h.content.ListLevels(r.Context(), levelshare.ListLevelsRequest{
		Creator: r.URL.Query().Get("creator"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LevelListResponse{Success: true, Levels: levels})
}

// ListUserLevels lists one user's levels.
func (h *LevelHandler) ListUserLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.content.ListLevels(r.Context(), levelshare.ListLevelsRequest{
		Creator: chi.URLParam(r, "username"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LevelListResponse{Success: true, Levels: levels})
}

// GetLevel retrieves one level by id.
func (h *LevelHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, levelshare.ErrLevelNotFound)
		return
	}

	level, err := h.content.GetLevel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LevelResponse{Success: true, Level: level})
}

// DownloadResponse carries the resolved payload URL.
type DownloadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// DownloadLevel resolves a fresh URL for the level's payload blob.
func (h *LevelHandler) DownloadLevel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, levelshare.ErrLevelNotFound)
		return
	}

	url, err := h.content.PayloadDownloadURL(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, DownloadResponse{Success: true, URL: url})
}

// DeleteLevel deletes a level if the actor is its creator or an admin.
func (h *LevelHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, levelshare.ErrMissingToken)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, levelshare.ErrLevelNotFound)
		return
	}

	if err := h.content.DeleteLevel(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, statusResponse{Success: true, Message: "level deleted"})
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, levelshare.ErrInvalidInput
	}
	return readFileHeader(headers[0])
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, levelshare.ErrInvalidInput
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, levelshare.ErrInvalidInput
	}
	return data, nil
}

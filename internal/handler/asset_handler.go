package handler

import (
	"errors"
	"net/http"

	"bookstore/internal/asset"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
)

// maxUploadBytes bounds cover image uploads.
const maxUploadBytes = 5 << 20

// AssetHandler accepts image uploads from administrators.
type AssetHandler struct {
	store  asset.Store
	logger zerolog.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(store asset.Store, logger zerolog.Logger) *AssetHandler {
	return &AssetHandler{
		store:  store,
		logger: logger.With().Str("handler", "asset").Logger(),
	}
}

// UploadResponse carries the public URL of a stored asset.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /api/admin/assets with a multipart "file" field.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidField, "request must be multipart form data under 5 MB", h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "file is required", h.logger)
		return
	}
	defer file.Close()

	url, err := h.store.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, asset.ErrUnsupportedType) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidField, "file must be a jpg, png, gif or webp image", h.logger)
			return
		}
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to store asset")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeUploadFailed, "upload failed", h.logger)
		return
	}

	h.logger.Info().Str("url", url).Msg("asset uploaded")
	writeJSON(w, http.StatusCreated, UploadResponse{URL: url})
}

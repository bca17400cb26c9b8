package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookstore/internal/asset"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAssetHandler_Upload(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		field          string
		filename       string
		mockURL        string
		mockError      error
		expectedStatus int
		expectedCode   string
		expectStore    bool
	}{
		{
			name:           "Success",
			field:          "file",
			filename:       "dune.png",
			mockURL:        "http://localhost:8080/uploads/abc.png",
			expectedStatus: http.StatusCreated,
			expectStore:    true,
		},
		{
			name:           "Missing file field",
			field:          "image",
			filename:       "dune.png",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeMissingField,
		},
		{
			name:           "Unsupported type",
			field:          "file",
			filename:       "dune.exe",
			mockError:      fmt.Errorf("%w: %q", asset.ErrUnsupportedType, ".exe"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidField,
			expectStore:    true,
		},
		{
			name:           "Store failure",
			field:          "file",
			filename:       "dune.png",
			mockError:      errors.New("disk full"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeUploadFailed,
			expectStore:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			handler := NewAssetHandler(store, logger)

			if tt.expectStore {
				store.On("Put", mock.Anything, tt.filename, "image-bytes").Return(tt.mockURL, tt.mockError)
			}

			w := httptest.NewRecorder()
			handler.Upload(w, multipartRequest(t, tt.field, tt.filename, "image-bytes"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				resp := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, resp.Error)
				assert.NotContains(t, resp.Message, "disk full")
			} else {
				var resp UploadResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.mockURL, resp.URL)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestAssetHandler_Upload_NotMultipart(t *testing.T) {
	store := new(MockStore)
	handler := NewAssetHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/assets", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "Put")
}

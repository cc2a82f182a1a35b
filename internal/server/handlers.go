package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/blob"
	"github.com/example/annotator/internal/raster"
	"github.com/example/annotator/internal/store"
)

const (
	msgNotFound      = "Upload not found."
	msgNoImageData   = "No image data provided."
	msgInvalidImage  = "Invalid image data provided."
	msgSaveFailed    = "An error occurred while saving the image."
	msgRestoreFailed = "An error occurred while restoring the original image."
	msgSaved         = "Image saved successfully."
	msgRestored      = "Original image restored."
	msgNothingToDo   = "No edited version to restore."
)

type (
	// Response is the JSON body of save and restore replies.
	Response struct {
		Error       string `json:"error,omitempty"`
		Message     string `json:"message,omitempty"`
		RedirectURL string `json:"redirect_url,omitempty"`
	}

	// UploadResponse describes an upload to the editor.
	UploadResponse struct {
		*store.Upload
		ImageURL         string `json:"image_url"`
		OriginalURL      string `json:"original_url"`
		HasEditedVersion bool   `json:"has_edited_version"`
		SaveURL          string `json:"save_url"`
		RestoreURL       string `json:"restore_url"`
	}

	saveRequest struct {
		ImageData string `json:"image_data"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Error: msg})
}

func originalKey(u *store.Upload) string { return u.ID + "-" + u.Filename }

func editedKey(u *store.Upload) string { return u.ID + "-" + u.EditedFilename }

// cleanFilename reduces a client-supplied name to a safe base name.
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == 0:
			return -1
		case r < ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "image.png"
	}
	return name
}

func (s *Server) describe(u *store.Upload) UploadResponse {
	base := "/uploads/" + u.ID
	return UploadResponse{
		Upload:           u,
		ImageURL:         s.url(base + "/image"),
		OriginalURL:      s.url(base + "/original"),
		HasEditedVersion: u.HasEditedVersion(),
		SaveURL:          s.url(base + "/save_image"),
		RestoreURL:       s.url(base + "/restore_original"),
	}
}

// lookup loads the upload named in the URL or writes the error reply.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Upload, logrus.FieldLogger, bool) {
	id := chi.URLParam(r, "id")
	log := s.log.WithField("upload_id", id)
	u, err := s.uploads.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("Upload not found")
		writeError(w, r, http.StatusNotFound, msgNotFound)
		return nil, log, false
	}
	if err != nil {
		log.WithField("error", err).Error("Failed to load upload")
		writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
		return nil, log, false
	}
	return u, log, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if _, err := raster.Decode(body); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidImage)
		return
	}
	name := cleanFilename(r.URL.Query().Get("filename"))
	u, err := s.uploads.Create(r.Context(), name)
	if err != nil {
		s.log.WithField("error", err).Error("Failed to create upload")
		writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	if err := s.blobs.Put(r.Context(), originalKey(u), body); err != nil {
		s.log.WithField("error", err).WithField("upload_id", u.ID).Error("Failed to store original")
		writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	s.log.WithFields(logrus.Fields{"upload_id": u.ID, "filename": name, "bytes": len(body)}).Info("Upload created")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, s.describe(u))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	u, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, s.describe(u))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	u, log, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if u.HasEditedVersion() {
		log.Info("Serving edited image")
		s.serveBlob(w, r, log, editedKey(u), u.EditedFilename)
		return
	}
	log.Info("Serving original image")
	s.serveBlob(w, r, log, originalKey(u), u.Filename)
}

func (s *Server) handleOriginal(w http.ResponseWriter, r *http.Request) {
	u, log, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.serveBlob(w, r, log, originalKey(u), u.Filename)
}

func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, key, name string) {
	data, err := s.blobs.Get(r.Context(), key)
	if errors.Is(err, blob.ErrNotExist) {
		log.WithField("key", key).Error("Image file missing from storage")
		writeError(w, r, http.StatusNotFound, "Image file not found on server.")
		return
	}
	if err != nil {
		log.WithField("error", err).Error("Failed to read image")
		writeError(w, r, http.StatusInternalServerError, "An error occurred while loading the image.")
		return
	}
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// imageData reads image_data from a JSON or form body.
func (s *Server) imageData(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	ctype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ctype == "application/json" {
		var req saveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("decode request: %w", err)
		}
		return req.ImageData, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}
	return r.PostFormValue("image_data"), nil
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	u, log, ok := s.lookup(w, r)
	if !ok {
		return
	}
	log.WithField("content_type", r.Header.Get("Content-Type")).Info("Save image request")

	data, err := s.imageData(w, r)
	if err != nil {
		log.WithField("error", err).Warn("Unreadable save request")
		writeError(w, r, http.StatusBadRequest, msgInvalidImage)
		return
	}
	if data == "" {
		log.Warn("No image data")
		writeError(w, r, http.StatusBadRequest, msgNoImageData)
		return
	}
	img, err := raster.DataURLBytes(data)
	if errors.Is(err, raster.ErrEmptyPayload) {
		writeError(w, r, http.StatusBadRequest, msgNoImageData)
		return
	}
	if err == nil {
		_, err = raster.Decode(img)
	}
	if err != nil {
		log.WithField("error", err).Error("Invalid image data")
		writeError(w, r, http.StatusBadRequest, msgInvalidImage)
		return
	}

	edited := *u
	edited.EditedFilename = "edited_" + u.Filename
	if err := s.blobs.Put(r.Context(), editedKey(&edited), img); err != nil {
		log.WithField("error", err).Error("Failed to write edited image")
		writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	if _, err := s.uploads.SetEdited(r.Context(), u.ID, edited.EditedFilename); err != nil {
		log.WithField("error", err).Error("Failed to record edited image")
		writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	log.WithField("bytes", len(img)).Info("Saved edited image")
	render.JSON(w, r, Response{Message: msgSaved})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	u, log, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !u.HasEditedVersion() {
		render.JSON(w, r, Response{Message: msgNothingToDo})
		return
	}
	key := editedKey(u)
	err := s.blobs.Delete(r.Context(), key)
	switch {
	case errors.Is(err, blob.ErrNotExist):
		log.WithField("key", key).Warn("Edited file not found, clearing record anyway")
	case err != nil:
		log.WithField("error", err).Error("Failed to delete edited image")
		writeError(w, r, http.StatusInternalServerError, msgRestoreFailed)
		return
	default:
		log.WithField("key", key).Info("Deleted edited file")
	}
	if _, err := s.uploads.ClearEdited(r.Context(), u.ID); err != nil {
		log.WithField("error", err).Error("Failed to clear edited record")
		writeError(w, r, http.StatusInternalServerError, msgRestoreFailed)
		return
	}
	render.JSON(w, r, Response{Message: msgRestored, RedirectURL: s.url("/uploads/" + u.ID)})
}

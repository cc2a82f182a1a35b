package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/example/annotator/internal/blob"
	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/persist"
	"github.com/example/annotator/internal/raster"
	"github.com/example/annotator/internal/store"
)

const token = "s3cret"

type fixture struct {
	srv     *httptest.Server
	uploads store.UploadStore
	blobs   blob.Store
	log     *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	f := &fixture{uploads: store.NewMemory(), blobs: blob.NewMemory(), log: log}
	s := New(f.uploads, f.blobs, WithCSRF(token, ""), WithLogger(log))
	f.srv = httptest.NewServer(s.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	data, err := raster.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func (f *fixture) do(t *testing.T, method, path, csrf, ctype string, body []byte) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if csrf != "" {
		req.Header.Set("X-CSRFToken", csrf)
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	res, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out Response
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	res.Body = io.NopCloser(bytes.NewReader(raw))
	return res, out
}

func (f *fixture) create(t *testing.T, name string, data []byte) UploadResponse {
	t.Helper()
	res, _ := f.do(t, http.MethodPost, "/uploads?filename="+url.QueryEscape(name), token, "image/png", data)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var up UploadResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&up))
	return up
}

func saveBody(t *testing.T, data string) []byte {
	t.Helper()
	b, err := json.Marshal(saveRequest{ImageData: data})
	require.NoError(t, err)
	return b
}

func TestCreateAndGetUpload(t *testing.T) {
	f := newFixture(t)
	orig := pngBytes(t, 4, 4, color.RGBA{B: 255, A: 255})
	up := f.create(t, "../../cells.png", orig)
	require.Equal(t, "cells.png", up.Filename)
	require.False(t, up.HasEditedVersion)
	require.Equal(t, "/uploads/"+up.ID+"/save_image", up.SaveURL)

	res, _ := f.do(t, http.MethodGet, "/uploads/"+up.ID+"/image", "", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "image/png", res.Header.Get("Content-Type"))
	got, _ := io.ReadAll(res.Body)
	require.Equal(t, orig, got)
}

func TestUnknownUpload(t *testing.T) {
	f := newFixture(t)
	res, body := f.do(t, http.MethodGet, "/uploads/nope", "", "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Equal(t, "Upload not found.", body.Error)

	res, body = f.do(t, http.MethodPost, "/uploads/nope/save_image", token, "application/json", saveBody(t, "x"))
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Equal(t, "Upload not found.", body.Error)
}

func TestCSRFRequired(t *testing.T) {
	f := newFixture(t)
	up := f.create(t, "a.png", pngBytes(t, 2, 2, color.RGBA{A: 255}))
	for _, tok := range []string{"", "wrong"} {
		res, body := f.do(t, http.MethodPost, "/uploads/"+up.ID+"/save_image", tok, "application/json", saveBody(t, "x"))
		require.Equal(t, http.StatusForbidden, res.StatusCode)
		require.Equal(t, "CSRF token missing or incorrect.", body.Error)
	}
}

func TestSaveValidation(t *testing.T) {
	f := newFixture(t)
	up := f.create(t, "a.png", pngBytes(t, 2, 2, color.RGBA{A: 255}))
	path := "/uploads/" + up.ID + "/save_image"

	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"empty", saveBody(t, ""), "No image data provided."},
		{"missing field", []byte(`{}`), "No image data provided."},
		{"header only", saveBody(t, "data:image/png;base64,"), "No image data provided."},
		{"bad base64", saveBody(t, "data:image/png;base64,@@@"), "Invalid image data provided."},
		{"not an image", saveBody(t, base64.StdEncoding.EncodeToString([]byte("hello"))), "Invalid image data provided."},
		{"bad json", []byte(`{"image_data":`), "Invalid image data provided."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, body := f.do(t, http.MethodPost, path, token, "application/json", tc.body)
			require.Equal(t, http.StatusBadRequest, res.StatusCode)
			require.Equal(t, tc.want, body.Error)
		})
	}
	u, err := f.uploads.Get(context.Background(), up.ID)
	require.NoError(t, err)
	require.False(t, u.HasEditedVersion())
}

func TestSaveAcceptsBareBase64AndForm(t *testing.T) {
	f := newFixture(t)
	up := f.create(t, "a.png", pngBytes(t, 2, 2, color.RGBA{A: 255}))
	edited := pngBytes(t, 2, 2, color.RGBA{R: 255, A: 255})
	encoded := base64.StdEncoding.EncodeToString(edited)

	res, body := f.do(t, http.MethodPost, "/uploads/"+up.ID+"/save_image", token, "application/json", saveBody(t, encoded))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "Image saved successfully.", body.Message)

	form := url.Values{"image_data": {raster.DataURLPrefix + encoded}}.Encode()
	res, _ = f.do(t, http.MethodPost, "/uploads/"+up.ID+"/save_image", token, "application/x-www-form-urlencoded", []byte(form))
	require.Equal(t, http.StatusOK, res.StatusCode)

	u, err := f.uploads.Get(context.Background(), up.ID)
	require.NoError(t, err)
	require.Equal(t, "edited_a.png", u.EditedFilename)
}

func TestEditorSaveAndRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	orig := pngBytes(t, 10, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	up := f.create(t, "scan.png", orig)
	base := f.srv.URL

	client := persist.NewClient(base+up.SaveURL, base+up.RestoreURL, persist.WithCSRF(token, ""), persist.WithLogger(f.log))
	s := editor.New(editor.WithPersister(client), editor.WithLogger(f.log))
	require.NoError(t, s.Load(context.Background(), persist.URLSource{URL: base + up.ImageURL}))

	require.NoError(t, s.PointerDown(image.Pt(1, 5)))
	require.NoError(t, s.PointerUp(image.Pt(8, 5)))
	require.NoError(t, s.Save(context.Background()))

	res, _ := f.do(t, http.MethodGet, "/uploads/"+up.ID+"/image", "", "", nil)
	served, _ := io.ReadAll(res.Body)
	img, err := raster.Decode(served)
	require.NoError(t, err)
	require.True(t, raster.Equal(s.Canvas(), img))

	redirect, err := s.RestoreOriginal(context.Background(), editor.Always)
	require.NoError(t, err)
	require.Equal(t, "/uploads/"+up.ID, redirect)
	require.Equal(t, 2, s.Status().HistoryLen)

	res, _ = f.do(t, http.MethodGet, "/uploads/"+up.ID+"/image", "", "", nil)
	served, _ = io.ReadAll(res.Body)
	require.Equal(t, orig, served)

	_, err = s.RestoreOriginal(context.Background(), editor.Always)
	require.NoError(t, err)
}

func TestRestoreWithoutEdit(t *testing.T) {
	f := newFixture(t)
	up := f.create(t, "a.png", pngBytes(t, 2, 2, color.RGBA{A: 255}))
	res, body := f.do(t, http.MethodPost, "/uploads/"+up.ID+"/restore_original", token, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "No edited version to restore.", body.Message)
	require.Empty(t, body.RedirectURL)
}

func TestRestoreIgnoresMissingBlob(t *testing.T) {
	f := newFixture(t)
	up := f.create(t, "a.png", pngBytes(t, 2, 2, color.RGBA{A: 255}))
	_, err := f.uploads.SetEdited(context.Background(), up.ID, "edited_a.png")
	require.NoError(t, err)

	res, body := f.do(t, http.MethodPost, "/uploads/"+up.ID+"/restore_original", token, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "Original image restored.", body.Message)
	u, err := f.uploads.Get(context.Background(), up.ID)
	require.NoError(t, err)
	require.False(t, u.HasEditedVersion())
}

func TestCSRFEndpoint(t *testing.T) {
	f := newFixture(t)
	res, err := f.srv.Client().Get(f.srv.URL + "/csrf")
	require.NoError(t, err)
	defer res.Body.Close()
	var out csrfResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, token, out.Token)
	require.Equal(t, "X-CSRFToken", out.Header)
}

func TestCleanFilename(t *testing.T) {
	for in, want := range map[string]string{
		"a.png":            "a.png",
		"../../etc/passwd": "passwd",
		`c:\tmp\x.jpg`:     "x.jpg",
		"":                 "image.png",
		"..":               "image.png",
	} {
		require.Equal(t, want, cleanFilename(in), in)
	}
}

package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
)

// ObjectStore is the bucket surface the storage handlers use.
type ObjectStore interface {
	Name() string
	Upload(ctx context.Context, p string, r io.Reader, upsert bool) error
	Open(p string) (*os.File, error)
	PublicURL(p string) string
}

// StorageHandler serves uploads to and downloads from one bucket.
type StorageHandler struct {
	bucket ObjectStore
	log    logrus.FieldLogger
}

func NewStorageHandler(bucket ObjectStore, log logrus.FieldLogger) *StorageHandler {
	return &StorageHandler{bucket: bucket, log: log}
}

// Upload handles POST /storage/<bucket>/*
// The request body is the raw file. X-Upsert: true allows overwriting.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	if err := policy.CanUpload(PrincipalFrom(r.Context()), p); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	upsert, _ := strconv.ParseBool(r.Header.Get("X-Upsert"))
	if err := h.bucket.Upload(r.Context(), p, r.Body, upsert); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.UploadResponse{
		Key:       h.bucket.Name() + "/" + p,
		Path:      p,
		PublicURL: h.bucket.PublicURL(p),
	})
}

// Public handles GET /storage/public/<bucket>/*
func (h *StorageHandler) Public(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	f, err := h.bucket.Open(p)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, path.Base(p), info.ModTime(), f)
}

package controllers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/shopmandi/shopmandi-backend/api/responses"
	"github.com/shopmandi/shopmandi-backend/internal/uploads"
	"github.com/shopmandi/shopmandi-backend/pkg/config"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
)

// UploadImage accepts a multipart image and returns its public URL.
func UploadImage(svc *uploads.Service, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}

		maxBytes := int64(cfg.MaxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file missing"))
			return
		}
		defer func() { _ = file.Close() }()

		// Buffer the body so the service can retry locally if the remote
		// store rejects the stream mid-write.
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read upload body"))
			return
		}

		result, err := svc.Store(r.Context(), header.Filename, header.Header.Get("Content-Type"), bytes.NewReader(buf.Bytes()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"url": result.URL})
	}
}

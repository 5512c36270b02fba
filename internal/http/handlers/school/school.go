// Package school holds the HTTP handlers for /api/schools.
//
// The handlers are factories: they receive their dependencies and return
// the http.HandlerFunc that serves requests, closing over them.
package school

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/schools-api/internal/blob"
	"github.com/aanand-mishra/schools-api/internal/http/middleware"
	"github.com/aanand-mishra/schools-api/internal/storage"
	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/utils/response"
	"github.com/aanand-mishra/schools-api/internal/validation"
)

// textPartsAllowance is added to the upload limit to cover the scalar
// parts and multipart framing.
const textPartsAllowance = 1 << 20

// Options tunes the ingestion handler.
type Options struct {
	// Folder is the blob store prefix for school images.
	Folder string
	// MaxUploadBytes caps the image size; larger requests are rejected.
	MaxUploadBytes int64
}

// New handles POST /api/schools: parse the multipart form, validate it,
// upload the optional image, then insert exactly one row.
//
// The steps run strictly in that order. A failed upload aborts the
// request before the database is touched.
func New(store storage.Storage, uploader blob.Uploader, schema *validation.Schema, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := requestLogger(r)

		log.Info("creating a school")

		if opts.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxUploadBytes+textPartsAllowance)
		}

		form, err := parseForm(r, opts.MaxUploadBytes)
		if err != nil {
			log.Error("failed to parse form", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if errs := schema.Validate(form); errs != nil {
			log.Info("school rejected by validation", slog.String("error", errs.Error()))
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(errs))
			return
		}

		record := form.School()

		var uploaded *blob.Result
		if form.SchoolImage != nil {
			res, err := uploader.Upload(ctx, form.SchoolImage.Data, blob.Options{
				Folder:       opts.Folder,
				PublicID:     blob.UniquePublicID(form.SchoolName, form.EmailAddress, form.ContactNumber),
				ResourceType: blob.ResourceImage,
			})
			if err != nil {
				log.Error("image upload failed", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			uploaded = &res
			record.Image = &res.SecureURL
			log.Info("image uploaded", slog.String("key", res.Key))
		}

		id, err := store.CreateSchool(ctx, record)
		if err != nil {
			log.Error("failed to insert school", slog.String("error", err.Error()))
			if uploaded != nil {
				discardUpload(ctx, log, uploader, uploaded.Key)
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		log.Info("school created", slog.Int64("id", id))

		response.WriteJSON(w, http.StatusOK, response.Created(id))
	}
}

// GetList handles GET /api/schools and returns the whole table.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(r)

		log.Info("getting all schools")

		schools, err := store.GetSchools(r.Context())
		if err != nil {
			log.Error("error getting schools", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Schools(schools))
	}
}

// requestLogger tags the default logger with the request id and, on
// authenticated routes, the caller's email.
func requestLogger(r *http.Request) *slog.Logger {
	log := slog.With(slog.String("request_id", middleware.RequestID(r.Context())))
	if email, ok := middleware.EmailFromContext(r.Context()); ok {
		log = log.With(slog.String("user", email))
	}
	return log
}

// parseForm extracts the six text parts and, when present and non-empty,
// the first schoolImage file.
func parseForm(r *http.Request, maxMemory int64) (types.SchoolForm, error) {
	if maxMemory <= 0 {
		maxMemory = 10 << 20
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return types.SchoolForm{}, fmt.Errorf("parse multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	var form types.SchoolForm
	for _, field := range types.ScalarFields {
		form.Set(field, r.PostFormValue(field))
	}

	file, header, err := r.FormFile(types.FieldSchoolImage)
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return types.SchoolForm{}, fmt.Errorf("read %s: %w", types.FieldSchoolImage, err)
	}
	defer file.Close()

	if header.Size == 0 {
		return form, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return types.SchoolForm{}, fmt.Errorf("read %s: %w", types.FieldSchoolImage, err)
	}
	form.SchoolImage = &types.Image{Filename: header.Filename, Data: data}

	return form, nil
}

// discardUpload removes an object whose row never made it into the
// database. Failure only leaves an orphan behind, so it is logged and
// otherwise ignored.
func discardUpload(ctx context.Context, log *slog.Logger, uploader blob.Uploader, key string) {
	if err := uploader.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Warn("failed to remove orphaned image",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	log.Info("removed orphaned image", slog.String("key", key))
}

package school_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/aanand-mishra/schools-api/internal/blob"
	blobs3 "github.com/aanand-mishra/schools-api/internal/blob/s3"
	"github.com/aanand-mishra/schools-api/internal/http/handlers/school"
	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/validation"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records inserts and assigns sequential ids.
type fakeStore struct {
	mu        sync.Mutex
	schools   []types.School
	createErr error
	listErr   error
	calls     []string
}

func (f *fakeStore) CreateSchool(_ context.Context, s types.School) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "insert")
	if f.createErr != nil {
		return 0, f.createErr
	}
	s.ID = int64(len(f.schools) + 1)
	f.schools = append(f.schools, s)
	return s.ID, nil
}

func (f *fakeStore) GetSchools(context.Context) ([]types.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]types.School, 0, len(f.schools))
	for i := len(f.schools) - 1; i >= 0; i-- {
		out = append(out, f.schools[i])
	}
	return out, nil
}

type upload struct {
	data []byte
	opts blob.Options
}

type fakeUploader struct {
	store     *fakeStore
	uploads   []upload
	deleted   []string
	uploadErr error
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, opts blob.Options) (blob.Result, error) {
	if f.store != nil {
		f.store.mu.Lock()
		f.store.calls = append(f.store.calls, "upload")
		f.store.mu.Unlock()
	}
	f.uploads = append(f.uploads, upload{data: data, opts: opts})
	if f.uploadErr != nil {
		return blob.Result{}, f.uploadErr
	}
	key := opts.Folder + "/" + opts.PublicID
	return blob.Result{SecureURL: "https://img.example.com/" + key, Key: key}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

var publicIDPattern = regexp.MustCompile(
	`^Lincoln_High_a_b_com_1234567890_[0-9a-f]{8}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{12}$`)

var validFields = map[string]string{
	types.FieldSchoolName:    "Lincoln High",
	types.FieldEmailAddress:  "a@b.com",
	types.FieldAddress:       "1 Main St",
	types.FieldCity:          "Springfield",
	types.FieldState:         "IL",
	types.FieldContactNumber: "1234567890",
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile(types.FieldSchoolImage, "school.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schools", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func newHandler(store *fakeStore, up *fakeUploader) http.HandlerFunc {
	return school.New(store, up, validation.New(), school.Options{Folder: "schoolImages", MaxUploadBytes: 1 << 20})
}

func TestCreate_WithoutImageInsertsNullImage(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{store: store}
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, validFields, nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["id"])

	assert.Empty(t, up.uploads)
	require.Len(t, store.schools, 1)
	assert.Equal(t, types.School{
		ID: 1, Name: "Lincoln High", Email: "a@b.com", Address: "1 Main St",
		City: "Springfield", State: "IL", Contact: "1234567890",
	}, store.schools[0])
}

func TestCreate_WithImageUploadsThenInsertsURL(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{store: store}
	img := []byte("\x89PNG\r\n\x1a\nfake")
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, validFields, img))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"upload", "insert"}, store.calls)

	require.Len(t, up.uploads, 1)
	opts := up.uploads[0].opts
	assert.Equal(t, img, up.uploads[0].data)
	assert.Equal(t, "schoolImages", opts.Folder)
	assert.Equal(t, blob.ResourceImage, opts.ResourceType)
	assert.Regexp(t, publicIDPattern, opts.PublicID)

	require.Len(t, store.schools, 1)
	require.NotNil(t, store.schools[0].Image)
	assert.Equal(t, "https://img.example.com/schoolImages/"+opts.PublicID, *store.schools[0].Image)
}

func TestCreate_EmptyImagePartIsIgnored(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{}
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, validFields, []byte{}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, up.uploads)
	require.Len(t, store.schools, 1)
	assert.Nil(t, store.schools[0].Image)
}

func TestCreate_UploadFailureSkipsInsert(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{store: store, uploadErr: errors.New("cloud says no")}
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, validFields, []byte("\x89PNG\r\n\x1a\n")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "cloud says no")
	assert.Equal(t, []string{"upload"}, store.calls, "no insert after a failed upload")
}

func TestCreate_InsertFailureRemovesUploadedImage(t *testing.T) {
	store := &fakeStore{createErr: errors.New("database is locked")}
	up := &fakeUploader{}
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, validFields, []byte("\x89PNG\r\n\x1a\n")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "database is locked")
	require.Len(t, up.uploads, 1)
	assert.Equal(t, []string{"schoolImages/" + up.uploads[0].opts.PublicID}, up.deleted)
}

// memS3 is an in-memory bucket behind the real s3.Store.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestCreate_RepeatSubmissionKeepsEarlierImage(t *testing.T) {
	store := &fakeStore{}
	bucket := &memS3{objects: map[string][]byte{}}
	h := school.New(store, blobs3.New(bucket, "schools", "https://cdn"), validation.New(),
		school.Options{Folder: "schoolImages", MaxUploadBytes: 1 << 20})
	first := []byte("\x89PNG\r\n\x1a\nfirst")
	second := []byte("\x89PNG\r\n\x1a\nsecond")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, validFields, first))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.schools, 1)
	require.NotNil(t, store.schools[0].Image)
	url := *store.schools[0].Image
	require.Len(t, bucket.objects, 1)

	store.createErr = errors.New("database is locked")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, validFields, second))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	key := strings.TrimPrefix(url, "https://cdn/")
	require.Len(t, bucket.objects, 1, "the failed request removes only its own upload")
	assert.Equal(t, first, bucket.objects[key], "record 1 still points at its own bytes")
}

func TestCreate_ServerSideValidation(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{}
	fields := map[string]string{}
	for k, v := range validFields {
		fields[k] = v
	}
	fields[types.FieldEmailAddress] = "nope"
	delete(fields, types.FieldCity)
	w := httptest.NewRecorder()

	newHandler(store, up).ServeHTTP(w, multipartRequest(t, fields, []byte("\x89PNG\r\n\x1a\n")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{
		types.FieldEmailAddress: "Please enter a valid email address",
		types.FieldCity:         "City is required",
	}, body["fields"])
	assert.Empty(t, up.uploads)
	assert.Empty(t, store.schools)
}

func TestCreate_NotMultipart(t *testing.T) {
	store := &fakeStore{}
	req := httptest.NewRequest(http.MethodPost, "/api/schools", strings.NewReader(`{"schoolName":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	newHandler(store, &fakeUploader{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, store.calls)
}

func TestGetList(t *testing.T) {
	store := &fakeStore{schools: []types.School{
		{ID: 1, Name: "Old"},
		{ID: 2, Name: "New"},
	}}
	w := httptest.NewRecorder()

	school.GetList(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schools", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool           `json:"success"`
		Schools []types.School `json:"schools"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.True(t, env.Success)
	require.Len(t, env.Schools, 2)
	assert.Equal(t, "New", env.Schools[0].Name)
}

func TestGetList_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()

	school.GetList(&fakeStore{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schools", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"schools":[]}`, w.Body.String())
}

func TestGetList_Error(t *testing.T) {
	w := httptest.NewRecorder()

	school.GetList(&fakeStore{listErr: errors.New("connection refused")}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schools", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"connection refused"}`, w.Body.String())
}

func TestHandlers_LogRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store := &fakeStore{}
	handlers := map[string]http.Handler{
		"list":   school.GetList(store),
		"create": newHandler(store, &fakeUploader{}),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			req := multipartRequest(t, validFields, nil)
			chimw.RequestID(h).ServeHTTP(httptest.NewRecorder(), req)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.NotEmpty(t, lines)
			for _, line := range lines {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				assert.NotEmpty(t, entry["request_id"], line)
			}
		})
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/docconv/cmd/docconv-api/handlers"
	"github.com/spherical/docconv/internal/convert"
	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/encode"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/raster"
	"github.com/spherical/docconv/internal/worker"
)

type fakeConverter struct {
	imageReq   convert.ImageRequest
	imageRes   *encode.Result
	textArgs   []any
	pages      []domain.PageImage
	count      int
	err        error
	convertIn  string
	archiveDir string
}

func (f *fakeConverter) PdfToImage(req convert.ImageRequest) (*encode.Result, error) {
	f.imageReq = req
	return f.imageRes, f.err
}

func (f *fakeConverter) PdfToPngs(string, string, convert.ProgressFunc) ([]domain.PageImage, error) {
	return f.pages, f.err
}

func (f *fakeConverter) CompressImage(string, string, int64) (*encode.Result, error) {
	return &encode.Result{}, f.err
}

func (f *fakeConverter) CountImages(context.Context, string) (int, error) {
	return f.count, f.err
}

func (f *fakeConverter) ExtractText(pdfPath, outputDir string, minChars, maxPages int) (string, error) {
	f.textArgs = []any{pdfPath, outputDir, minChars, maxPages}
	return outputDir + "/cv.txt", f.err
}

func (f *fakeConverter) ConvertFormat(_ context.Context, in, _ string) error {
	f.convertIn = in
	return f.err
}

func (f *fakeConverter) ExtractArchive(_ context.Context, _, dir string) error {
	f.archiveDir = dir
	return f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, svc handlers.Converter, checks map[string]handlers.Pinger) http.Handler {
	t.Helper()
	pool := worker.NewPool(2, 4, nil)
	t.Cleanup(func() { _ = pool.Close() })

	return NewRouter(observability.Nop(), &AppConfig{
		ServiceName: "docconv",
		Text:        handlers.TextDefaults{WordCountMin: 80, MaxPages: 8},
		ReadyChecks: checks,
	}, svc, pool)
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, handlers.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestPdfToImage_Success(t *testing.T) {
	svc := &fakeConverter{imageRes: &encode.Result{Path: "/out/cv.png", Met: true}}
	h := newTestRouter(t, svc, nil)

	rec, env := post(t, h, "/pdf-to-image",
		`{"pdf_path":"/in/cv.pdf","output_dir":"/out","max_page":8,"target_size":200000,"preprocess":"grayscale"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "success", env.Message)
	assert.Equal(t, "/out/cv.png", env.Data)
	assert.NotEmpty(t, env.RequestID)

	assert.Equal(t, convert.ImageRequest{
		PDFPath:    "/in/cv.pdf",
		OutputDir:  "/out",
		MaxPages:   8,
		TargetSize: 200000,
		Preprocess: raster.PreprocessGrayscale,
	}, svc.imageReq)
}

func TestPdfToImage_BudgetNotMet(t *testing.T) {
	svc := &fakeConverter{imageRes: &encode.Result{}}
	rec, env := post(t, newTestRouter(t, svc, nil), "/pdf-to-image", `{"pdf_path":"a.pdf","output_dir":"o","max_page":8,"target_size":0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", env.Data)
}

func TestPdfToImage_BadPreprocess(t *testing.T) {
	rec, env := post(t, newTestRouter(t, &fakeConverter{}, nil), "/pdf-to-image", `{"pdf_path":"a.pdf","max_page":8,"preprocess":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.ErrorTypeValidation), env.ErrorType)
}

func TestPdfToImage_RequiresMaxPage(t *testing.T) {
	svc := &fakeConverter{imageRes: &encode.Result{}}
	h := newTestRouter(t, svc, nil)

	for _, body := range []string{
		`{"pdf_path":"a.pdf","output_dir":"o","target_size":1000}`,
		`{"pdf_path":"a.pdf","output_dir":"o","max_page":0,"target_size":1000}`,
	} {
		rec, env := post(t, h, "/pdf-to-image", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, string(domain.ErrorTypeValidation), env.ErrorType)
	}
	assert.Empty(t, svc.imageReq.PDFPath)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.ValidationError("file does not exist: x.pdf", nil), http.StatusBadRequest},
		{"document open", domain.DocumentOpenError("failed to open x.pdf", errors.New("bad xref")), http.StatusUnprocessableEntity},
		{"empty document", domain.EmptyDocumentError("no pages", nil), http.StatusUnprocessableEntity},
		{"page render", domain.PageRenderError("failed to render page 2", nil), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeConverter{err: tt.err}, nil)
			rec, env := post(t, h, "/pdf-image-count", `{"pdf_path":"x.pdf"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, env.Code)
			assert.Equal(t, tt.err.Error(), env.Message)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	rec, env := post(t, newTestRouter(t, &fakeConverter{}, nil), "/compress-image", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotZero(t, env.Code)
}

func TestImageCount(t *testing.T) {
	rec, env := post(t, newTestRouter(t, &fakeConverter{count: 3}, nil), "/pdf-image-count", `{"pdf_path":"x.pdf"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), env.Data)
}

func TestPdfToPngs_ReturnsPaths(t *testing.T) {
	svc := &fakeConverter{pages: []domain.PageImage{
		{PageNumber: 1, ImagePath: "/o/a_1.png"},
		{PageNumber: 2, ImagePath: "/o/a_2.png"},
	}}
	_, env := post(t, newTestRouter(t, svc, nil), "/pdf-to-pngs", `{"pdf_path":"a.pdf","output_dir":"/o"}`)
	assert.Equal(t, []any{"/o/a_1.png", "/o/a_2.png"}, env.Data)
}

func TestExtractText_Defaults(t *testing.T) {
	svc := &fakeConverter{}
	h := newTestRouter(t, svc, nil)

	_, env := post(t, h, "/extract-pdf-text-speed", `{"pdf_path":"a.pdf","output_dir":"/o"}`)
	assert.Equal(t, "/o/cv.txt", env.Data)
	assert.Equal(t, []any{"a.pdf", "/o", 80, 8}, svc.textArgs)

	post(t, h, "/extract-pdf-text-speed", `{"pdf_path":"a.pdf","output_dir":"/o","word_count_min":0,"max_page":2}`)
	assert.Equal(t, []any{"a.pdf", "/o", 0, 2}, svc.textArgs)
}

func TestConvertAndArchive(t *testing.T) {
	svc := &fakeConverter{}
	h := newTestRouter(t, svc, nil)

	rec, env := post(t, h, "/convert-file-format", `{"input_path":"/in/a.docx","output_path":"/out/a.pdf"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.Data)
	assert.Equal(t, "/in/a.docx", svc.convertIn)

	rec, _ = post(t, h, "/extract-archive", `{"input_path":"/in/a.zip","output_dir":"/out/a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/out/a", svc.archiveDir)
}

func TestHealthAndReady(t *testing.T) {
	h := newTestRouter(t, &fakeConverter{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = newTestRouter(t, &fakeConverter{}, map[string]handlers.Pinger{"cache": failingPinger{}})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

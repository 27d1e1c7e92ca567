package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstore/internal/http/middleware"
	"docstore/internal/model"
	"docstore/internal/service"
	serviceMocks "docstore/internal/service/mocks"
)

func decodeError(t *testing.T, r io.Reader) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(r).Decode(&res))
	return res
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("in-memory catalog", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "docstore_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	app := fiber.New()
	app.Get("/metrics", Metrics(reg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "docstore_test_total 3")
}

func TestUploadFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockContentService)
	app := fiber.New()
	app.Post("/api/files", UploadFile(mockSvc))

	t.Run("new content", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "test.txt", []byte("hello world"))
		id := uuid.NewString()
		mockSvc.On("Store", mock.Anything, []byte("hello world"), "test.txt").
			Return(&service.StoreResult{ID: id, FileName: "test.txt", IsNew: true}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result["id"])
		assert.Equal(t, "test.txt", result["file_name"])
		assert.Equal(t, true, result["is_new"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate content", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "copy.txt", []byte("hello world"))
		id := uuid.NewString()
		mockSvc.On("Store", mock.Anything, []byte("hello world"), "copy.txt").
			Return(&service.StoreResult{ID: id, FileName: "test.txt", IsNew: false}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.StoreResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.False(t, result.IsNew)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("wrong field", func(t *testing.T) {
		body, ct := multipartBody(t, "document", "test.txt", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "empty.txt", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "test.txt", []byte("hello"))
		mockSvc.On("Store", mock.Anything, []byte("hello"), "test.txt").
			Return(nil, errors.New("upload to storage: connection reset")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp.Body)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "connection reset")
		mockSvc.AssertExpectations(t)
	})
}

func TestGetFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockContentService)
	app := fiber.New()
	app.Get("/api/files/:id", GetFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Retrieve", mock.Anything, id).Return(&model.FileContent{
			FileMetadata: model.FileMetadata{ID: id, FileName: "report.pdf", ContentType: "application/pdf", Size: 3},
			Data:         []byte{1, 2, 3},
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename=report.pdf`, resp.Header.Get("Content-Disposition"))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte{1, 2, 3}, body)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Retrieve", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Retrieve", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetFileMetadata(t *testing.T) {
	mockSvc := new(serviceMocks.MockContentService)
	app := fiber.New()
	app.Get("/api/files/:id/metadata", GetFileMetadata(mockSvc))

	id := uuid.NewString()
	mockSvc.On("Metadata", mock.Anything, id).
		Return(&model.FileMetadata{ID: id, FileName: "a.txt", ContentType: "text/plain", Size: 5}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/"+id+"/metadata", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var md map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&md))
	assert.Equal(t, id, md["id"])
	assert.Equal(t, "a.txt", md["file_name"])
	assert.Equal(t, "text/plain", md["content_type"])
	assert.Equal(t, float64(5), md["size"])
	mockSvc.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
}

func TestGetFileBytes(t *testing.T) {
	mockSvc := new(serviceMocks.MockContentService)
	app := fiber.New()
	app.Get("/api/files/:id/bytes", GetFileBytes(mockSvc))

	id := uuid.NewString()
	mockSvc.On("Retrieve", mock.Anything, id).Return(&model.FileContent{
		FileMetadata: model.FileMetadata{ID: id, FileName: "a.txt", ContentType: "text/plain", Size: 5},
		Data:         []byte("hello"),
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/files/"+id+"/bytes", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "aGVsbG8=", body["bytes"])
	assert.Equal(t, "a.txt", body["file_name"])
}

func TestGetAnalysis(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Get("/api/get_analysis/:id", GetAnalysis(mockSvc))

	t.Run("computed", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("GetOrCompute", mock.Anything, id).Return(&model.AnalysisResult{
			ID: uuid.NewString(), SubjectID: id, FileName: "a.txt",
			ParagraphCount: 1, WordCount: 1, CharacterCount: 5,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/get_analysis/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, id, body["file_id"])
		assert.Equal(t, float64(1), body["word_count"])
		assert.Equal(t, float64(5), body["character_count"])
		assert.Equal(t, false, body["is_error"])
	})

	t.Run("ineligible is still 200", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("GetOrCompute", mock.Anything, id).Return(&model.AnalysisResult{
			SubjectID: id, FileName: "a.png", IsError: true, ErrorMessage: service.NotTextMessage,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/get_analysis/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.AnalysisResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.IsError)
		assert.Equal(t, service.NotTextMessage, body.ErrorMessage)
	})

	errCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"upstream unavailable", &service.UpstreamError{Op: "fetch metadata", Err: errors.New("refused")}, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
		{"upstream timeout", &service.UpstreamError{Op: "fetch bytes", Timeout: true}, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{"invalid encoding", service.ErrInvalidEncoding, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.NewString()
			mockSvc.On("GetOrCompute", mock.Anything, id).Return(nil, tc.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/get_analysis/"+id, nil)
			req.Header.Set(middleware.RequestIDHeader, "rid-"+tc.code)
			resp, _ := app.Test(req)

			assert.Equal(t, tc.status, resp.StatusCode)
			res := decodeError(t, resp.Body)
			assert.Equal(t, tc.code, res.Error.Code)
			assert.Equal(t, "rid-"+tc.code, res.RequestID)
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/get_analysis/abc", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp.Body).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		BodyLimit:    64,
	})

	RegisterFileRoutes(app, nil, prometheus.NewRegistry(), new(serviceMocks.MockContentService))

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "big.txt", []byte(strings.Repeat("x", 1024)))
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("ops routes", func(t *testing.T) {
		for _, path := range []string{"/health", "/healthz", "/metrics"} {
			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})
}

func TestRegisterAnalysisRoutes(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	mockSvc := new(serviceMocks.MockAnalysisService)
	RegisterAnalysisRoutes(app, nil, nil, mockSvc)

	id := uuid.NewString()
	mockSvc.On("GetOrCompute", mock.Anything, id).Return(&model.AnalysisResult{SubjectID: id}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/get_analysis/"+id, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

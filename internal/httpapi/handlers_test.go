package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/knowledge"
	"github.com/fyrsmithlabs/ragd/internal/loader"
	"github.com/fyrsmithlabs/ragd/internal/synthesis"
)

// fakeService returns canned results or errors.
type fakeService struct {
	ingestResult *knowledge.IngestResult
	ingestErr    error
	answer       *synthesis.Answer
	queryErr     error

	gotScope    knowledge.Scope
	gotFile     loader.File
	gotQuestion string
	gotTopK     int
}

func (s *fakeService) CreateOrAppend(ctx context.Context, scope knowledge.Scope, file loader.File) (*knowledge.IngestResult, error) {
	s.gotScope = scope
	s.gotFile = file
	return s.ingestResult, s.ingestErr
}

func (s *fakeService) Query(ctx context.Context, scope knowledge.Scope, question string, topK int) (*synthesis.Answer, error) {
	s.gotScope = scope
	s.gotQuestion = question
	s.gotTopK = topK
	return s.answer, s.queryErr
}

func newTestServer(t *testing.T, service *fakeService) *Server {
	t.Helper()

	srv, err := NewServer(Config{Port: 0}, service, zap.NewNop())
	require.NoError(t, err)
	return srv
}

// multipartBody builds a create request body with the standard fields.
func multipartBody(t *testing.T, userID, chatID, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if userID != "" {
		require.NoError(t, w.WriteField("user_id", userID))
	}
	if chatID != "" {
		require.NoError(t, w.WriteField("chat_id", chatID))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCreate(t *testing.T) {
	service := &fakeService{
		ingestResult: &knowledge.IngestResult{
			Collection: "kb_alice_chat1",
			FileID:     "f-1",
			Filename:   "notes.txt",
			Chunks:     3,
		},
	}
	srv := newTestServer(t, service)

	body, contentType := multipartBody(t, "alice", "chat1", "notes.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/create", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, knowledge.Scope{UserID: "alice", ChatID: "chat1"}, service.gotScope)
	assert.Equal(t, "notes.txt", service.gotFile.Name)
	assert.Equal(t, []byte("hello"), service.gotFile.Bytes)

	var result knowledge.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Chunks)
}

func TestHandleCreateMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		chatID   string
		filename string
	}{
		{name: "no user", chatID: "chat1", filename: "a.txt"},
		{name: "no chat", userID: "alice", filename: "a.txt"},
		{name: "no file", userID: "alice", chatID: "chat1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeService{})

			body, contentType := multipartBody(t, tt.userID, tt.chatID, tt.filename, []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/create", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Echo().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleCreateErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "scope not found", err: fmt.Errorf("user: %w", knowledge.ErrScopeNotFound), want: http.StatusNotFound},
		{name: "unsupported format", err: fmt.Errorf("ext: %w", loader.ErrUnsupportedFormat), want: http.StatusUnsupportedMediaType},
		{name: "already exists", err: fmt.Errorf("scope: %w", knowledge.ErrKnowledgeBaseExists), want: http.StatusConflict},
		{name: "dimension mismatch", err: fmt.Errorf("dim: %w", knowledge.ErrDimensionMismatch), want: http.StatusConflict},
		{name: "ingestion failed", err: fmt.Errorf("parse: %w", loader.ErrIngestionFailed), want: http.StatusUnprocessableEntity},
		{name: "internal", err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeService{ingestErr: tt.err})

			body, contentType := multipartBody(t, "alice", "chat1", "a.txt", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/create", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Echo().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleQuery(t *testing.T) {
	service := &fakeService{
		answer: &synthesis.Answer{Text: "42", Sources: []string{"doc"}},
	}
	srv := newTestServer(t, service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/query/chat1",
		strings.NewReader(`{"user_id":"alice","question":"meaning of life?","top_k":5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, knowledge.Scope{UserID: "alice", ChatID: "chat1"}, service.gotScope)
	assert.Equal(t, "meaning of life?", service.gotQuestion)
	assert.Equal(t, 5, service.gotTopK)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Answer)
	assert.Equal(t, []string{"doc"}, resp.Sources)
}

func TestHandleQueryMissingFields(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/query/chat1",
		strings.NewReader(`{"question":"no user"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueryKnowledgeBaseNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeService{
		queryErr: fmt.Errorf("scope: %w", knowledge.ErrKnowledgeBaseNotFound),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/query/chat1",
		strings.NewReader(`{"user_id":"alice","question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

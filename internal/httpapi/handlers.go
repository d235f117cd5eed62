package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/knowledge"
	"github.com/fyrsmithlabs/ragd/internal/loader"
)

// maxUploadSize bounds uploaded file size.
const maxUploadSize = 50 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type queryRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type queryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Service: "ragd"})
}

// handleCreate ingests one uploaded file into the (user_id, chat_id)
// knowledge base. Multipart form fields: user_id, chat_id, file.
func (s *Server) handleCreate(c echo.Context) error {
	userID := c.FormValue("user_id")
	chatID := c.FormValue("chat_id")
	if userID == "" || chatID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "user_id and chat_id are required"})
	}

	header, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "file is required"})
	}
	if header.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
	}

	f, err := header.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot open uploaded file"})
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot read uploaded file"})
	}
	if len(content) > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
	}

	scope := knowledge.Scope{UserID: userID, ChatID: chatID}
	result, err := s.service.CreateOrAppend(c.Request().Context(), scope, loader.File{
		Name:  header.Filename,
		Bytes: content,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// handleQuery answers a question from the chat's knowledge base. The chat
// ID comes from the path, the user ID and question from the JSON body.
func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.UserID == "" || req.Question == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "user_id and question are required"})
	}

	scope := knowledge.Scope{UserID: req.UserID, ChatID: c.Param("chat_id")}
	answer, err := s.service.Query(c.Request().Context(), scope, req.Question, req.TopK)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, queryResponse{Answer: answer.Text, Sources: answer.Sources})
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, knowledge.ErrScopeNotFound),
		errors.Is(err, knowledge.ErrKnowledgeBaseNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
	case errors.Is(err, knowledge.ErrKnowledgeBaseExists),
		errors.Is(err, knowledge.ErrDimensionMismatch):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, loader.ErrIngestionFailed):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

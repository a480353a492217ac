package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/toolcall"
)

type handler struct {
	deps   Deps
	logger *slog.Logger
}

type enrollRequest struct {
	StudentName string `json:"studentName"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type actionsRequest struct {
	RunID           string            `json:"runId"`
	ToolCallOutputs []toolcall.Output `json:"toolCallOutputs"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// enroll handles POST /api/students.
func (h *handler) enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.StudentName) == "" {
		errorJSON(c, http.StatusBadRequest, "Student name is required")
		return
	}

	res, err := h.deps.Students.Enroll(c.Request.Context(), req.StudentName)
	if errors.Is(err, students.ErrNameRequired) {
		errorJSON(c, http.StatusBadRequest, "Student name is required")
		return
	}
	if err != nil {
		h.logger.Error("enroll student", "student", req.StudentName, "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to process student request")
		return
	}
	c.JSON(http.StatusOK, res)
}

// createAssistant handles POST /api/assistants.
func (h *handler) createAssistant(c *gin.Context) {
	id, err := h.deps.Creator.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create assistant", "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to create assistant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistantId": id})
}

// createThread handles POST /api/assistants/threads.
func (h *handler) createThread(c *gin.Context) {
	id, err := h.deps.Assistants.CreateThread(c.Request.Context())
	if err != nil {
		h.logger.Error("create thread", "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to create thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"threadId": id})
}

// sendMessage handles POST /api/assistants/threads/:threadId/messages.
func (h *handler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		errorJSON(c, http.StatusBadRequest, "Message content is required")
		return
	}
	threadID := c.Param("threadId")
	stream(c, h.deps.Relay.Send(c.Request.Context(), threadID, req.Content))
}

// submitActions handles POST /api/assistants/threads/:threadId/actions.
func (h *handler) submitActions(c *gin.Context) {
	var req actionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RunID == "" {
		errorJSON(c, http.StatusBadRequest, "Run ID is required")
		return
	}
	threadID := c.Param("threadId")
	stream(c, h.deps.Relay.Resume(c.Request.Context(), threadID, req.RunID, req.ToolCallOutputs))
}

// file handles GET /api/files/:fileId.
func (h *handler) file(c *gin.Context) {
	fileID := c.Param("fileId")
	body, contentType, err := h.deps.Assistants.FileContent(c.Request.Context(), fileID)
	if err != nil {
		h.logger.Error("fetch file", "file_id", fileID, "error", err)
		errorJSON(c, http.StatusBadGateway, "Failed to fetch file")
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Warn("copy file", "file_id", fileID, "error", err)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/requestdata"
	"github.com/scalpelprep/scalpelprep-backend/internal/services"
)

type ResponseHandler struct {
	log         *logger.Logger
	responseSvc services.ResponseService
}

func NewResponseHandler(log *logger.Logger, responseSvc services.ResponseService) *ResponseHandler {
	return &ResponseHandler{
		log:         log.With("handler", "ResponseHandler"),
		responseSvc: responseSvc,
	}
}

// POST /api/responses
func (h *ResponseHandler) RecordResponse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var req struct {
		QuestionID string `json:"question_id"`
		Choice     string `json:"choice"`
		Mode       string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	response, err := h.responseSvc.RecordResponse(c.Request.Context(), rd.UserID, questionID, req.Choice, req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

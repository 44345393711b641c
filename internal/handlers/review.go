package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/requestdata"
	"github.com/scalpelprep/scalpelprep-backend/internal/services"
)

type ReviewHandler struct {
	log       *logger.Logger
	reviewSvc services.ReviewService
}

func NewReviewHandler(log *logger.Logger, reviewSvc services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:       log.With("handler", "ReviewHandler"),
		reviewSvc: reviewSvc,
	}
}

// GET /api/reviews/due
func (h *ReviewHandler) GetDuePool(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	pool, err := h.reviewSvc.GetDueReviewPool(c.Request.Context(), rd.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": pool, "count": len(pool)})
}

// POST /api/reviews/:questionID/grade
// Body: {"quality": 0..5} from the confidence buttons.
func (h *ReviewHandler) GradeReview(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	questionID, err := uuid.Parse(c.Param("questionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	var req struct {
		Quality *int `json:"quality"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quality == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality is required"})
		return
	}
	state, err := h.reviewSvc.GradeReview(c.Request.Context(), rd.UserID, questionID, *req.Quality)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

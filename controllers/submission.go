package controllers

import (
	"log"
	"net/http"
	"strconv"

	"auction-release-api/models"
	"auction-release-api/services"
	"auction-release-api/utils"

	"github.com/gin-gonic/gin"
)

type CreateSubmissionRequest struct {
	Title       string  `json:"title" binding:"required"`
	QueueType   string  `json:"queue_type" binding:"required"`
	Currency    *string `json:"currency"`
	Rate        *string `json:"rate"`
	ImageURL    *string `json:"image_url"`
	CardPayload *string `json:"card_payload"`
	FeesPaid    *bool   `json:"fees_paid"`
}

// CreateSubmission - intake boundary: record a new pending submission
// POST /api/v1/submissions
func CreateSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := submissionStore.Create(c.Request.Context(), &services.CreateSubmissionInput{
		UserID:      userID,
		Title:       utils.SanitizeInput(req.Title),
		QueueType:   models.QueueType(req.QueueType),
		Currency:    req.Currency,
		Rate:        req.Rate,
		ImageURL:    req.ImageURL,
		CardPayload: req.CardPayload,
		FeesPaid:    req.FeesPaid,
	})
	if err != nil {
		log.Printf("[CreateSubmission] user %d: %v", userID, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": sub})
}

// GetMySubmissions lists the caller's submissions
// GET /api/v1/submissions/my
func GetMySubmissions(c *gin.Context) {
	userID := c.GetInt("userID")

	subs, err := submissionStore.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[GetMySubmissions] user %d: %v", userID, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": subs, "total": len(subs)})
}

// GetSubmission returns one submission. Owners see their own; staff and
// admin see everything.
// GET /api/v1/submissions/:id
func GetSubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	sub, err := submissionStore.Get(c.Request.Context(), sid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	userID := c.GetInt("userID")
	roleID := c.GetInt("roleID")
	if sub.UserID != userID && roleID != models.RoleStaff && roleID != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

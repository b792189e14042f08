package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListPendingSubmissions - review queue, oldest first
// GET /api/v1/staff/submissions/pending
func ListPendingSubmissions(c *gin.Context) {
	subs, err := submissionStore.ListPending(c.Request.Context())
	if err != nil {
		log.Printf("[ListPendingSubmissions] %v", err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": subs, "total": len(subs)})
}

// ApproveSubmission - staff decision: accept and schedule
// POST /api/v1/staff/submissions/:id/approve
func ApproveSubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	reviewerID := c.GetInt("userID")
	sub, err := reviewService.Accept(c.Request.Context(), sid, reviewerID)
	if err != nil {
		log.Printf("[ApproveSubmission] submission %d by %d: %v", sid, reviewerID, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Submission accepted",
		"submission": sub,
	})
}

type DenySubmissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DenySubmission - staff decision: deny with reason
// POST /api/v1/staff/submissions/:id/deny
func DenySubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var req DenySubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deny reason is required"})
		return
	}

	reviewerID := c.GetInt("userID")
	sub, err := reviewService.Deny(c.Request.Context(), sid, reviewerID, req.Reason)
	if err != nil {
		log.Printf("[DenySubmission] submission %d by %d: %v", sid, reviewerID, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Submission denied",
		"submission": sub,
	})
}

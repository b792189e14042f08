package controllers

import (
	"errors"
	"net/http"

	"auction-release-api/services"

	"github.com/gin-gonic/gin"
)

// Shared service instances, wired once at startup.
var (
	submissionStore *services.SubmissionStore
	reviewService   *services.ReviewService
	releaseService  *services.ReleaseService
)

// InitServices injects the service layer the handlers delegate to.
func InitServices(store *services.SubmissionStore, review *services.ReviewService, release *services.ReleaseService) {
	submissionStore = store
	reviewService = review
	releaseService = release
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, services.ErrSubmissionNotFound), errors.Is(err, services.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrBatchNotClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCapacityRaceLost), errors.Is(err, services.ErrCycleAlreadyRunning):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

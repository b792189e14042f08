package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListBatches - all batches with derived member counts
// GET /api/v1/admin/batches
func ListBatches(c *gin.Context) {
	batches, err := submissionStore.ListBatches(c.Request.Context())
	if err != nil {
		log.Printf("[ListBatches] %v", err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches, "total": len(batches)})
}

// GetBatchDetails - one batch plus its member submissions
// GET /api/v1/admin/batches/:id
func GetBatchDetails(c *gin.Context) {
	bid, err := strconv.Atoi(c.Param("id"))
	if err != nil || bid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	batch, err := submissionStore.BatchByID(c.Request.Context(), bid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	members, err := submissionStore.BatchMembers(c.Request.Context(), bid)
	if err != nil {
		log.Printf("[GetBatchDetails] batch %d members: %v", bid, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":        batch,
		"members":      members,
		"member_count": len(members),
	})
}

// ClearBatch - delete a batch. The plain delete refuses while members are
// still live; ?force=1 clears the members first.
// DELETE /api/v1/admin/batches/:id
func ClearBatch(c *gin.Context) {
	bid, err := strconv.Atoi(c.Param("id"))
	if err != nil || bid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	if c.Query("force") == "1" {
		cleared, err := submissionStore.ClearBatch(c.Request.Context(), bid)
		if err != nil {
			log.Printf("[ClearBatch] batch %d: %v", bid, err)
			respondServiceError(c, err)
			return
		}

		log.Printf("[ClearBatch] batch %d cleared by admin %d (%d submissions)", bid, c.GetInt("userID"), cleared)
		c.JSON(http.StatusOK, gin.H{
			"message": "Batch cleared",
			"cleared": cleared,
		})
		return
	}

	if err := submissionStore.DeleteBatch(c.Request.Context(), bid); err != nil {
		log.Printf("[ClearBatch] batch %d: %v", bid, err)
		respondServiceError(c, err)
		return
	}

	log.Printf("[ClearBatch] batch %d deleted by admin %d", bid, c.GetInt("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "Batch deleted"})
}

// ForceReleaseSubmission - publish one accepted submission immediately
// POST /api/v1/admin/submissions/:id/force-release
func ForceReleaseSubmission(c *gin.Context) {
	sid, err := strconv.Atoi(c.Param("id"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	adminID := c.GetInt("userID")
	sub, err := releaseService.ForceRelease(c.Request.Context(), sid, adminID)
	if err != nil {
		log.Printf("[ForceReleaseSubmission] submission %d by %d: %v", sid, adminID, err)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Submission released",
		"submission": sub,
	})
}

// RunReleaseCycle - trigger the close/publish cycle outside the schedule
// POST /api/v1/admin/release-cycle/run
func RunReleaseCycle(c *gin.Context) {
	adminID := c.GetInt("userID")
	if err := releaseService.RunCycleNow(c.Request.Context()); err != nil {
		log.Printf("[RunReleaseCycle] by %d: %v", adminID, err)
		respondServiceError(c, err)
		return
	}

	log.Printf("[RunReleaseCycle] manual cycle completed by admin %d", adminID)
	c.JSON(http.StatusOK, gin.H{"message": "Release cycle completed"})
}

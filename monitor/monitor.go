package monitor

import (
	"net/http"
	"time"

	"auction-release-api/config"
	"auction-release-api/models"
	"auction-release-api/services"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorPage exposes a small operational status endpoint for the
// release pipeline: queue depths, live listings, and the cycle marker.
func RegisterMonitorPage(router *gin.Engine, timetable services.Timetable) {
	router.GET("/monitor", func(c *gin.Context) {
		now := time.Now().UTC()

		counts := map[string]int64{}
		for _, status := range []models.SubmissionStatus{
			models.StatusPending,
			models.StatusAccepted,
			models.StatusReleased,
			models.StatusClosed,
			models.StatusDenied,
		} {
			var n int64
			if err := config.DB.Model(&models.Submission{}).
				Where("status = ?", status).
				Count(&n).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database unavailable"})
				return
			}
			counts[string(status)] = n
		}

		var marker models.SystemConfig
		lastCycle := ""
		if err := config.DB.First(&marker, "`key` = ?", models.ConfigKeyLastReleaseCycle).Error; err == nil {
			lastCycle = marker.Value
		}

		c.JSON(http.StatusOK, gin.H{
			"now":                now.Format(time.RFC3339),
			"submissions":        counts,
			"last_release_cycle": lastCycle,
			"next_release":       timetable.NextReleaseBoundary(now).Format(time.RFC3339),
			"release_due":        !now.Before(timetable.ReleaseTarget(now)),
		})
	})
}

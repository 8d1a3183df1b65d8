package app

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the service endpoints on r.
func (a *App) RegisterRoutes(r gin.IRouter) {
	r.GET("/", a.RootHandler)
	r.POST("/call-logs", a.CallLogsHandler)

	if a.OAuth != nil {
		r.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)
		calendar := r.Group("/api/calendar")
		{
			calendar.GET("/auth", a.GoogleAuthHandler)
		}
	}
}

// GET /
func (a *App) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Call Log Analysis Server is running."})
}

// POST /call-logs
// Analyzes the transcript and, if a meeting was confirmed, starts booking
// without waiting for it.
func (a *App) CallLogsHandler(c *gin.Context) {
	var req CallLog
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	log.Printf("[call-logs] received logs for call %s", req.CallID)

	out, err := a.Analyze(c.Request.Context(), req)
	if errors.Is(err, ErrNoTranscript) {
		log.Printf("[call-logs] call %s: no transcript found in logs", req.CallID)
		c.JSON(http.StatusOK, analysisResponse{Status: StatusError, Message: msgNoTranscript})
		return
	}
	if err != nil {
		log.Printf("[call-logs] call %s: analysis failed: %v", req.CallID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": msgAnalyzeFailed})
		return
	}

	switch out.Status {
	case StatusBookingStarted:
		log.Printf("[call-logs] call %s: meeting detected, booking in background (task %s)", req.CallID, out.TaskID)
	default:
		log.Printf("[call-logs] call %s: no meeting was scheduled in this call", req.CallID)
	}
	c.JSON(http.StatusOK, analysisResponse{Status: out.Status, Details: &out.Intent})
}

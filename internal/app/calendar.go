package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const oauthStateTTL = 10 * time.Minute

// oauthStates tracks consent states issued by this process. Each state is
// accepted once and expires after oauthStateTTL.
type oauthStates struct {
	mu     sync.Mutex
	issued map[string]time.Time
}

func (s *oauthStates) issue(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issued == nil {
		s.issued = map[string]time.Time{}
	}
	for k, exp := range s.issued {
		if now.After(exp) {
			delete(s.issued, k)
		}
	}
	state := "callbook_" + uuid.NewString()
	s.issued[state] = now.Add(oauthStateTTL)
	return state
}

func (s *oauthStates) consume(state string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.issued[state]
	if !ok {
		return false
	}
	delete(s.issued, state)
	return !now.After(exp)
}

// GET /api/calendar/auth
// Returns the Google consent URL an operator opens once to obtain a
// refresh token for the google scheduler backend.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := a.states.issue(a.now())
	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	state := c.Query("state")
	if !a.states.consume(state, a.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired state"})
		return
	}

	token, err := a.OAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	if token.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no refresh token returned; revoke access and retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Authorization successful. Set GOOGLE_REFRESH_TOKEN and restart.",
		"state":         state,
		"refresh_token": token.RefreshToken,
	})
}

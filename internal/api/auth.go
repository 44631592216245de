package api

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/status"
	"go.uber.org/zap"
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

func (a *API) requestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pin, err := a.backend.SendOTP(c.Request.Context(), req.Email)
	if err != nil {
		a.fail(c, err)
		return
	}
	// The pin is kept locally so verification can short-circuit an
	// obviously wrong entry before hitting the backend.
	if err := a.store.SaveOTPPin(req.Email, pin); err != nil {
		a.failLocal(c, err)
		return
	}
	_ = a.machine.Transition(status.Authenticating)

	a.logger.Info("otp requested", zap.String("email", req.Email))
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (a *API) verifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Pin   string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !pinPattern.MatchString(req.Pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be six digits"})
		return
	}

	saved, ok, err := a.store.OTPPin(req.Email)
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if ok && saved != req.Pin {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "incorrect pin"})
		return
	}

	user, err := a.backend.VerifyOTP(c.Request.Context(), req.Email, req.Pin)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.store.SetCurrentUser(*user); err != nil {
		a.failLocal(c, err)
		return
	}

	a.logger.Info("user authenticated", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	a.bus.Publish(bus.Event{
		Kind:      "session.authenticated",
		Timestamp: time.Now(),
		Payload:   user,
	})
	c.JSON(http.StatusOK, user)
}

// logout wipes the cache. Every collection goes, messages and gallery
// included; the next login starts from backend state.
func (a *API) logout(c *gin.Context) {
	if err := a.store.ClearAll(); err != nil {
		a.failLocal(c, err)
		return
	}

	a.logger.Info("logged out, cache cleared")
	a.bus.Publish(bus.Event{
		Kind:      "session.logged_out",
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

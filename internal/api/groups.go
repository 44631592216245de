package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go.uber.org/zap"
)

func (a *API) createGroup(c *gin.Context) {
	var req struct {
		Name      string   `json:"name" binding:"required"`
		MemberIDs []string `json:"member_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := a.currentUser(c); !ok {
		return
	}

	group, err := a.backend.CreateGroup(c.Request.Context(), req.Name, req.MemberIDs)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.store.SaveChannel(*group); err != nil {
		a.failLocal(c, err)
		return
	}

	a.logger.Info("group created", zap.String("group_id", group.ID), zap.String("name", group.Name))
	c.JSON(http.StatusCreated, group)
}

func (a *API) addGroupMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	groupID := c.Param("id")

	if err := a.backend.AddMember(c.Request.Context(), groupID, req.UserID); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": req.UserID})
}

func (a *API) removeGroupMember(c *gin.Context) {
	groupID := c.Param("id")
	userID := c.Param("user")

	if err := a.backend.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": userID})
}

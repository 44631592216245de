package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) getStatus(c *gin.Context) {
	user, err := a.store.CurrentUser()
	if err != nil {
		a.failLocal(c, err)
		return
	}

	channels, err := a.store.ChannelCount()
	if err != nil {
		a.failLocal(c, err)
		return
	}
	messages, err := a.store.MessageCount()
	if err != nil {
		a.failLocal(c, err)
		return
	}

	resp := gin.H{
		"state":    a.machine.Current(),
		"channels": channels,
		"messages": messages,
	}
	if user != nil {
		resp["user_id"] = user.ID
		resp["role"] = user.Role
	}
	c.JSON(http.StatusOK, resp)
}

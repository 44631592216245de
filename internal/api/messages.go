package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campusd/internal/store"
)

func (a *API) sendMessage(c *gin.Context) {
	var req struct {
		ChannelID string `json:"channel_id" binding:"required"`
		Body      string `json:"body"`
		Type      string `json:"type"`
		FileURI   string `json:"file_uri"`
		ReplyTo   string `json:"reply_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	typ := store.MessageType(req.Type)
	if typ == "" {
		typ = store.TypeText
	}
	switch typ {
	case store.TypeText, store.TypeImage, store.TypeFile, store.TypeVideo:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type"})
		return
	}
	if typ == store.TypeText && req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text message needs a body"})
		return
	}
	if typ != store.TypeText && req.FileURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media message needs a file_uri"})
		return
	}

	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	m, err := a.reconciler.Compose(user.ID, req.ChannelID, req.Body, typ, req.FileURI, req.ReplyTo)
	if err != nil {
		a.failLocal(c, err)
		return
	}
	// 202: the message is cached and queued, not yet on the backend.
	c.JSON(http.StatusAccepted, m)
}

func (a *API) deleteMessage(c *gin.Context) {
	id := c.Param("id")
	if err := a.store.DeleteMessage(id); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (a *API) starMessage(c *gin.Context) {
	var req struct {
		Starred bool `json:"starred"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.store.StarMessage(c.Param("id"), req.Starred); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": req.Starred})
}

func (a *API) pinMessage(c *gin.Context) {
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.store.PinMessage(c.Param("id"), req.Pinned); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pinned": req.Pinned})
}

func (a *API) starredMessages(c *gin.Context) {
	msgs, err := a.store.StarredMessages()
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

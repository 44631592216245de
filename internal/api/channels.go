package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

func (a *API) listChannels(c *gin.Context) {
	channels, err := a.store.Channels()
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if channels == nil {
		channels = []store.Channel{}
	}
	c.JSON(http.StatusOK, channels)
}

// refreshChannels pulls the contact and group lists from the backend
// and upserts them into the cache. Local-only fields like unread counts
// survive because SaveChannel merges by id.
func (a *API) refreshChannels(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	contacts, err := a.backend.Contacts(c.Request.Context(), user.ID, user.Role)
	if err != nil {
		a.fail(c, err)
		return
	}
	groups, err := a.backend.Groups(c.Request.Context(), user.ID)
	if err != nil {
		a.fail(c, err)
		return
	}

	for _, ch := range append(contacts, groups...) {
		if err := a.store.SaveChannel(ch); err != nil {
			a.failLocal(c, err)
			return
		}
	}

	a.logger.Info("channel list refreshed",
		zap.Int("contacts", len(contacts)), zap.Int("groups", len(groups)))
	channels, err := a.store.Channels()
	if err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (a *API) deleteChannel(c *gin.Context) {
	id := c.Param("id")
	if err := a.store.DeleteChannel(id); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (a *API) pinChannel(c *gin.Context) {
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.store.PinChannel(c.Param("id"), req.Pinned); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pinned": req.Pinned})
}

// openChannel marks the channel active, clears its unread count and
// returns the cached thread. Realtime join is best-effort.
func (a *API) openChannel(c *gin.Context) {
	id := c.Param("id")
	msgs, err := a.reconciler.Open(id)
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if err := a.realtime.Join(id); err != nil {
		a.logger.Warn("realtime join failed", zap.String("channel_id", id), zap.Error(err))
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) closeChannel(c *gin.Context) {
	id := c.Param("id")
	if err := a.realtime.Leave(id); err != nil {
		a.logger.Warn("realtime leave failed", zap.String("channel_id", id), zap.Error(err))
	}
	a.reconciler.Close()
	c.JSON(http.StatusOK, gin.H{"closed": id})
}

// refreshHistory pulls the channel's persisted history from the backend
// and merges it into the cache, then returns the merged thread.
func (a *API) refreshHistory(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	history, err := a.backend.History(c.Request.Context(), id, user.Role)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.reconciler.MergeHistory(id, history); err != nil {
		a.failLocal(c, err)
		return
	}

	msgs, err := a.reconciler.Thread(id)
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (a *API) listMessages(c *gin.Context) {
	msgs, err := a.reconciler.Thread(c.Param("id"))
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

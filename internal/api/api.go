// Package api exposes the daemon's local control surface over HTTP.
// The server listens on a per-profile unix socket; clients are the
// companion CLI and the campus app shell on the same machine.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campuskit/campusd/internal/backend"
	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/status"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

// Backend is the slice of the campus backend the handlers need.
type Backend interface {
	SendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, pin string) (*store.User, error)
	Contacts(ctx context.Context, userID string, role store.Role) ([]store.Channel, error)
	Groups(ctx context.Context, userID string) ([]store.Channel, error)
	CreateGroup(ctx context.Context, name string, memberIDs []string) (*store.Channel, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	History(ctx context.Context, channelID string, role store.Role) ([]store.Message, error)
}

// Realtime is the slice of the realtime bridge the handlers need.
// Join and leave are best-effort; a disconnected bridge is not an error
// the caller can act on.
type Realtime interface {
	Join(channelID string) error
	Leave(channelID string) error
}

// API holds the handler dependencies.
type API struct {
	store      *store.Store
	reconciler *reconcile.Reconciler
	backend    Backend
	realtime   Realtime
	machine    *status.Machine
	bus        *bus.Bus
	logger     *zap.Logger
}

// New creates the API handler set.
func New(s *store.Store, r *reconcile.Reconciler, b Backend, rt Realtime, m *status.Machine, eb *bus.Bus, logger *zap.Logger) *API {
	return &API{
		store:      s,
		reconciler: r,
		backend:    b,
		realtime:   rt,
		machine:    m,
		bus:        eb,
		logger:     logger,
	}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := r.Group("/v1")
	{
		v1.GET("/status", a.getStatus)

		v1.POST("/auth/request-otp", a.requestOTP)
		v1.POST("/auth/verify-otp", a.verifyOTP)
		v1.POST("/auth/logout", a.logout)

		v1.GET("/channels", a.listChannels)
		v1.POST("/channels/refresh", a.refreshChannels)
		v1.DELETE("/channels/:id", a.deleteChannel)
		v1.POST("/channels/:id/pin", a.pinChannel)
		v1.POST("/channels/:id/open", a.openChannel)
		v1.POST("/channels/:id/close", a.closeChannel)
		v1.POST("/channels/:id/refresh", a.refreshHistory)
		v1.GET("/channels/:id/messages", a.listMessages)

		v1.POST("/messages", a.sendMessage)
		v1.GET("/messages/starred", a.starredMessages)
		v1.DELETE("/messages/:id", a.deleteMessage)
		v1.POST("/messages/:id/star", a.starMessage)
		v1.POST("/messages/:id/pin", a.pinMessage)

		v1.GET("/gallery", a.listGallery)
		v1.POST("/gallery", a.saveGalleryImage)
		v1.DELETE("/gallery/:id", a.deleteGalleryImage)

		v1.POST("/groups", a.createGroup)
		v1.POST("/groups/:id/members", a.addGroupMember)
		v1.DELETE("/groups/:id/members/:user", a.removeGroupMember)
	}

	return r
}

// fail maps an error to the right HTTP class. Backend rejections carry
// the backend's own message; transport failures read as bad gateway.
func (a *API) fail(c *gin.Context, err error) {
	var be *backend.BusinessError
	if errors.As(err, &be) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": be.Msg})
		return
	}
	a.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func (a *API) failLocal(c *gin.Context, err error) {
	a.logger.Error("cache operation failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// currentUser resolves the logged-in user or writes a 401.
func (a *API) currentUser(c *gin.Context) (*store.User, bool) {
	u, err := a.store.CurrentUser()
	if err != nil {
		a.failLocal(c, err)
		return nil, false
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return nil, false
	}
	return u, true
}

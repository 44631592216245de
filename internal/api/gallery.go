package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuskit/campusd/internal/store"
)

func (a *API) listGallery(c *gin.Context) {
	images, err := a.store.Gallery()
	if err != nil {
		a.failLocal(c, err)
		return
	}
	if images == nil {
		images = []store.GalleryImage{}
	}
	c.JSON(http.StatusOK, images)
}

func (a *API) saveGalleryImage(c *gin.Context) {
	var req struct {
		URI  string `json:"uri" binding:"required"`
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img := store.GalleryImage{
		ID:        uuid.NewString(),
		URI:       req.URI,
		Name:      req.Name,
		Size:      req.Size,
		Timestamp: time.Now(),
	}
	if err := a.store.SaveGalleryImage(img); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (a *API) deleteGalleryImage(c *gin.Context) {
	id := c.Param("id")
	if err := a.store.DeleteGalleryImage(id); err != nil {
		a.failLocal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

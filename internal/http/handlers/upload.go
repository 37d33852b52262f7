package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImageSize = 5 << 20 // 5 MiB

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadImage stores a profile image on local disk under a uuid name and
// records the served URI on the user.
func (h *Handler) UploadImage(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "image file is required"})
		return
	}

	if file.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "image too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unsupported image type"})
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		fail(c, err)
		return
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, name)); err != nil {
		fail(c, err)
		return
	}

	user, err := h.Users.SetImage(c.Request.Context(), p, "/uploads/"+name)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image uploaded successfully",
		"image":   user.Image,
	})
}

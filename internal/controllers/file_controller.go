package controllers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"school_transport/internal/media"
)

// FileController serves objects from the disk store under /files.
type FileController struct {
	store *media.DiskStore
}

func NewFileController(store *media.DiskStore) *FileController {
	return &FileController{store: store}
}

func (fc *FileController) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	f, err := fc.store.Open(c.Param("bucket"), key)
	switch {
	case errors.Is(err, media.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open file"})
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stat file"})
		return
	}
	http.ServeContent(c.Writer, c.Request, st.Name(), st.ModTime(), io.ReadSeeker(f))
}

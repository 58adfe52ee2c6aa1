package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school_transport/internal/audit"
	"school_transport/internal/documents"
	"school_transport/internal/middleware"
)

type DocumentController struct {
	chain   *documents.Chain
	audit   Auditor
	maxSize int64
}

func NewDocumentController(chain *documents.Chain, a Auditor, maxSize int64) *DocumentController {
	return &DocumentController{chain: chain, audit: a, maxSize: maxSize}
}

// Upload runs the document chain for one multipart "file". The response
// carries every step error; 207 means the chain stopped part way.
func (dc *DocumentController) Upload(owner documents.Owner) gin.HandlerFunc {
	return func(c *gin.Context) { dc.upload(c, owner) }
}

func (dc *DocumentController) List(owner documents.Owner) gin.HandlerFunc {
	return func(c *gin.Context) { dc.list(c, owner) }
}

func (dc *DocumentController) upload(c *gin.Context, owner documents.Owner) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// 1) Validate the multipart fields before anything is uploaded.
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if dc.maxSize > 0 && fh.Size > dc.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	docType := c.PostForm("doc_type")
	if docType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doc_type is required"})
		return
	}
	exp, err := parseDate(c.PostForm("expiry_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expiry_date: " + err.Error()})
		return
	}

	// 2) Stream the file through the chain: blob, document row, link row.
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer src.Close()

	res, err := dc.chain.Run(c.Request.Context(), owner, id, documents.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        src,
		DocType:     docType,
		ExpiryDate:  exp,
		UploadedBy:  middleware.ActorID(c),
	})
	if errors.Is(err, documents.ErrOwnerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": string(owner) + " record not found"})
		return
	}
	if err != nil {
		storeError(c, "document", err)
		return
	}
	// 3) Some steps failed; report what did and didn't happen.
	if !res.OK() {
		c.JSON(http.StatusMultiStatus, res)
		return
	}
	recordAudit(dc.audit, c, "documents", res.Document.ID, audit.Create)
	c.JSON(http.StatusCreated, res)
}

func (dc *DocumentController) list(c *gin.Context, owner documents.Owner) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := dc.chain.List(c.Request.Context(), owner, id)
	if err != nil {
		storeError(c, "documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

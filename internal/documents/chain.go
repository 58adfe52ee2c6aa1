// Package documents runs the upload -> document row -> owner link chain for
// certificates attached to drivers, assistants and vehicles.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"school_transport/internal/expiry"
	"school_transport/internal/media"
	"school_transport/internal/models"
)

// Owner is the kind of record a document hangs off.
type Owner string

const (
	Drivers    Owner = "drivers"
	Assistants Owner = "assistants"
	Vehicles   Owner = "vehicles"
)

func ParseOwner(s string) (Owner, error) {
	switch o := Owner(s); o {
	case Drivers, Assistants, Vehicles:
		return o, nil
	}
	return "", fmt.Errorf("unknown document owner %q", s)
}

var ErrOwnerNotFound = errors.New("owner not found")

type Repo interface {
	OwnerExists(ctx context.Context, owner Owner, id uint) (bool, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	LinkDocument(ctx context.Context, owner Owner, ownerID, docID uint) error
	DeleteDocument(ctx context.Context, id uint) error
	ListDocuments(ctx context.Context, owner Owner, ownerID uint) ([]models.Document, error)
}

// Upload is one incoming file.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	DocType     string
	ExpiryDate  *time.Time
	UploadedBy  *uint
}

// Result reports what got persisted plus every step that failed. Document is
// nil unless the whole chain succeeded.
type Result struct {
	Document *models.Document `json:"document,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
}

func (r Result) OK() bool { return r.Document != nil && len(r.Errors) == 0 }

type Chain struct {
	repo   Repo
	store  media.Store
	bucket string
	now    func() time.Time
}

func NewChain(repo Repo, store media.Store, bucket string) *Chain {
	return &Chain{repo: repo, store: store, bucket: bucket, now: time.Now}
}

// Key is the object key for an owner's document.
func Key(owner Owner, ownerID uint, ts time.Time, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("documents/%s/%d/%d_%s%s", owner, ownerID, ts.UnixMilli(), uuid.NewString()[:8], ext)
}

// Run executes the chain. A failed blob upload stops it; a failed link
// insert removes the document row again on a best-effort basis.
func (c *Chain) Run(ctx context.Context, owner Owner, ownerID uint, up Upload) (Result, error) {
	ok, err := c.repo.OwnerExists(ctx, owner, ownerID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrOwnerNotFound
	}

	log := logrus.WithFields(logrus.Fields{"owner": owner, "owner_id": ownerID})
	var res Result

	key := Key(owner, ownerID, c.now(), up.FileName)
	stored, err := c.store.Upload(ctx, c.bucket, key, up.Body, up.ContentType)
	if err != nil {
		log.WithError(err).WithField("key", key).Error("document upload failed")
		res.Errors = append(res.Errors, "upload: "+err.Error())
		return res, nil
	}

	doc := &models.Document{
		DocType:     up.DocType,
		FileName:    up.FileName,
		StoragePath: stored,
		FileURL:     c.store.PublicURL(c.bucket, stored),
		ContentType: up.ContentType,
		Size:        up.Size,
		ExpiryDate:  up.ExpiryDate,
		UploadedBy:  up.UploadedBy,
	}
	if err := c.repo.CreateDocument(ctx, doc); err != nil {
		log.WithError(err).Error("document insert failed")
		res.Errors = append(res.Errors, "document: "+err.Error())
		return res, nil
	}

	if err := c.repo.LinkDocument(ctx, owner, ownerID, doc.ID); err != nil {
		log.WithError(err).WithField("document_id", doc.ID).Error("document link failed")
		res.Errors = append(res.Errors, "link: "+err.Error())
		if derr := c.repo.DeleteDocument(ctx, doc.ID); derr != nil {
			log.WithError(derr).WithField("document_id", doc.ID).Warn("orphan document cleanup failed")
			res.Errors = append(res.Errors, "cleanup: "+derr.Error())
		}
		return res, nil
	}

	res.Document = doc
	return res, nil
}

// Listed is a document with its expiry badge.
type Listed struct {
	models.Document
	Expiry expiry.Status `json:"expiry"`
}

func (c *Chain) List(ctx context.Context, owner Owner, ownerID uint) ([]Listed, error) {
	docs, err := c.repo.ListDocuments(ctx, owner, ownerID)
	if err != nil {
		return nil, err
	}
	today := c.now()
	out := make([]Listed, 0, len(docs))
	for _, d := range docs {
		out = append(out, Listed{Document: d, Expiry: expiry.Classify(d.ExpiryDate, today)})
	}
	return out, nil
}

package media

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds concurrent PutObject calls per submit.
const maxParallelUploads = 4

// Uploader pushes staged attachments to a single bucket.
type Uploader struct {
	store  Store
	bucket string
	now    func() time.Time
	random func() string
}

func NewUploader(store Store, bucket string) *Uploader {
	return &Uploader{
		store:  store,
		bucket: bucket,
		now:    time.Now,
		random: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:10] },
	}
}

// ObjectKey builds <prefix>/<timestamp>_<index>_<random>.<ext>.
func ObjectKey(prefix string, ts time.Time, index int, random, ext string) string {
	name := fmt.Sprintf("%d_%d_%s.%s", ts.UnixMilli(), index, random, ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Upload sends one item and resolves its public URL. A single attempt is made.
func (u *Uploader) Upload(ctx context.Context, item Item, index int, prefix string) (URL, error) {
	f, err := os.Open(item.File.Path)
	if err != nil {
		return URL{}, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	key := ObjectKey(prefix, u.now(), index, u.random(), item.File.Ext())
	stored, err := u.store.Upload(ctx, u.bucket, key, f, item.File.ContentType)
	if err != nil {
		return URL{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return URL{Type: item.Kind, URL: u.store.PublicURL(u.bucket, stored)}, nil
}

// UploadAll attempts every item independently. Failed items are logged and
// left out; the rest keep their original relative order.
func (u *Uploader) UploadAll(ctx context.Context, items []Item, prefix string) []URL {
	if len(items) == 0 {
		return nil
	}
	results := make([]*URL, len(items))
	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			res, err := u.Upload(ctx, item, i, prefix)
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"index": i,
					"kind":  item.Kind,
					"name":  item.File.Name,
				}).Warn("media upload failed, dropping item")
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]URL, 0, len(items))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/sirupsen/logrus"
)

// OSSStore talks to an Alibaba Cloud OSS endpoint. Bucket handles are
// opened once per bucket name and reused.
type OSSStore struct {
	client   *oss.Client
	endpoint string
	buckets  map[string]*oss.Bucket
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	if ep == "" || strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
		return ep
	}
	return "https://" + ep
}

// NewOSSStore connects to OSS and opens the given buckets.
func NewOSSStore(endpoint, accessKey, secretKey string, bucketNames ...string) (*OSSStore, error) {
	endpoint = normalizeEndpoint(endpoint)
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("missing OSS endpoint or credentials")
	}
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	s := &OSSStore{client: client, endpoint: endpoint, buckets: make(map[string]*oss.Bucket)}
	for _, name := range bucketNames {
		bkt, err := client.Bucket(name)
		if err != nil {
			return nil, fmt.Errorf("client.Bucket(%s): %w", name, err)
		}
		s.buckets[name] = bkt
	}
	return s, nil
}

func (s *OSSStore) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) (string, error) {
	bkt, ok := s.buckets[bucket]
	if !ok {
		return "", fmt.Errorf("bucket %q not opened", bucket)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := bkt.PutObject(key, r, opts...); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("oss put object failed")
		return "", err
	}
	return key, nil
}

func (s *OSSStore) PublicURL(bucket, key string) string {
	u, err := url.Parse(s.endpoint)
	if err != nil || u.Host == "" {
		return key
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket, u.Host, strings.TrimLeft(key, "/"))
}

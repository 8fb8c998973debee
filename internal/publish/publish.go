// Package publish uploads assembled plugin archives to an S3 compatible
// object store.
package publish

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
)

// Artifact is an archive to upload.
type Artifact struct {
	Path       string
	Type       string
	Classifier string
}

// Publisher uploads archives and returns their object keys.
type Publisher interface {
	Publish(ctx context.Context, artifacts []Artifact) ([]string, error)
}

// objectStore is the part of *minio.Client the publisher uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Publisher uploads archives below prefix/group/artifact/version/.
type S3Publisher struct {
	client  objectStore
	bucket  string
	region  string
	prefix  string
	project model.Coordinate

	initOnce sync.Once
	initErr  error
}

var _ Publisher = (*S3Publisher)(nil)

// NewS3Publisher validates cfg and creates the client.
func NewS3Publisher(cfg config.Publish, project model.Coordinate) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = config.DefaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return newS3Publisher(client, bucket, region, cfg.Prefix, project), nil
}

func newS3Publisher(client objectStore, bucket, region, prefix string, project model.Coordinate) *S3Publisher {
	return &S3Publisher{
		client:  client,
		bucket:  bucket,
		region:  region,
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
		project: project,
	}
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.initOnce.Do(func() {
		exists, err := p.client.BucketExists(ctx, p.bucket)
		if err != nil {
			p.initErr = err
			return
		}
		if exists {
			return
		}
		p.initErr = p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	})
	return p.initErr
}

// Publish uploads every artifact. It stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, artifacts []Artifact) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if err := p.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	keys := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		key := ObjectKey(p.prefix, p.project, a)
		_, err := p.client.FPutObject(ctx, p.bucket, key, a.Path, minio.PutObjectOptions{
			ContentType: contentType(a.Type),
		})
		if err != nil {
			return keys, fmt.Errorf("upload %s to %s/%s: %w", a.Path, p.bucket, key, err)
		}
		logger.Info("Archive published.", "bucket", p.bucket, "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}

// ObjectKey returns prefix/group/path/artifact/version/artifact-version-classifier.type.
func ObjectKey(prefix string, project model.Coordinate, a Artifact) string {
	c := project
	c.Classifier = a.Classifier
	c.Type = a.Type
	segments := []string{}
	if prefix != "" {
		segments = append(segments, prefix)
	}
	segments = append(segments, strings.Split(project.Group, ".")...)
	segments = append(segments, project.Name, project.Version, c.FileName())
	return path.Join(segments...)
}

func contentType(t string) string {
	switch t {
	case "zip":
		return "application/zip"
	case "jar":
		return "application/java-archive"
	default:
		return "application/octet-stream"
	}
}

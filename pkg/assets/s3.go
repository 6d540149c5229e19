package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	ferrors "github.com/catxpapa/catxframeup/pkg/errors"
)

// S3Bucket stores files in an S3 bucket under an optional key prefix.
type S3Bucket struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Bucket loads the default AWS configuration (environment, shared
// config, instance role) and returns a bucket.
func NewS3Bucket(ctx context.Context, bucket, prefix string) (*S3Bucket, error) {
	if bucket == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "s3 bucket name is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3BucketFromClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3BucketFromClient wraps an existing client.
func NewS3BucketFromClient(client *s3.Client, bucket, prefix string) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Origin implements Bucket.
func (b *S3Bucket) Origin() string {
	return "s3://" + path.Join(b.bucket, b.prefix)
}

func (b *S3Bucket) key(k string) (string, error) {
	if err := ferrors.ValidatePath(k); err != nil {
		return "", err
	}
	if b.prefix == "" {
		return k, nil
	}
	return b.prefix + "/" + k, nil
}

func isMissing(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (b *S3Bucket) wrap(err error, k string) error {
	if isMissing(err) {
		return ferrors.Wrap(ferrors.ErrCodeNotFound, err, "%s not found", k)
	}
	return ferrors.Wrap(ferrors.NetworkCode(err), err, "s3 %s", k)
}

// Open implements Bucket.
func (b *S3Bucket) Open(ctx context.Context, k string) (io.ReadCloser, error) {
	key, err := b.key(k)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.wrap(err, k)
	}
	return resp.Body, nil
}

// Stat implements Bucket.
func (b *S3Bucket) Stat(ctx context.Context, k string) (Object, error) {
	key, err := b.key(k)
	if err != nil {
		return Object{}, err
	}
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Object{}, b.wrap(err, k)
	}
	return Object{Key: k, Size: aws.ToInt64(out.ContentLength), ModTime: aws.ToTime(out.LastModified)}, nil
}

// list walks every page of a delimited listing under prefix.
func (b *S3Bucket) list(ctx context.Context, prefix string, fn func(*s3.ListObjectsV2Output)) error {
	key, err := b.key(prefix)
	if err != nil {
		return err
	}
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(key + "/"),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return b.wrap(err, prefix)
		}
		fn(page)
	}
	return nil
}

// ListDirs implements Bucket.
func (b *S3Bucket) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := b.list(ctx, prefix, func(page *s3.ListObjectsV2Output) {
		for _, cp := range page.CommonPrefixes {
			name := path.Base(strings.TrimSuffix(aws.ToString(cp.Prefix), "/"))
			names = append(names, name)
		}
	})
	slices.Sort(names)
	return names, err
}

// ListFiles implements Bucket.
func (b *S3Bucket) ListFiles(ctx context.Context, prefix string) ([]Object, error) {
	var objs []Object
	err := b.list(ctx, prefix, func(page *s3.ListObjectsV2Output) {
		for _, o := range page.Contents {
			objs = append(objs, Object{
				Key:     prefix + "/" + path.Base(aws.ToString(o.Key)),
				Size:    aws.ToInt64(o.Size),
				ModTime: aws.ToTime(o.LastModified),
			})
		}
	})
	return objs, err
}

// Put implements Bucket.
func (b *S3Bucket) Put(ctx context.Context, k string, data []byte) error {
	key, err := b.key(k)
	if err != nil {
		return err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return b.wrap(err, k)
	}
	return nil
}

// Delete implements Bucket.
func (b *S3Bucket) Delete(ctx context.Context, k string) error {
	key, err := b.key(k)
	if err != nil {
		return err
	}
	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isMissing(err) {
		return b.wrap(err, k)
	}
	return nil
}

var _ Bucket = (*S3Bucket)(nil)

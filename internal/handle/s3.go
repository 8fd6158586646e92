package handle

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 reads one remote object through the forward-only Stream base. Every
// restart issues a fresh GetObject; the length comes from the first
// response's ContentLength.
type S3 struct {
	*Stream
}

// NewS3 opens s3://bucket/key for reading. The first GetObject happens
// here, so a missing object or denied access fails at open time. ctx
// governs the handle's whole lifetime, not just the constructor.
func NewS3(ctx context.Context, client *awss3.Client, bucket, key string) (*S3, error) {
	name := fmt.Sprintf("s3://%s/%s", bucket, key)
	s := &S3{}
	s.Stream = NewStream(name, func() (io.ReadCloser, error) {
		out, err := client.GetObject(ctx, &awss3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		if s.Stream.length < 0 {
			s.Stream.setLength(aws.ToInt64(out.ContentLength))
		}
		return out.Body, nil
	})
	if err := s.Stream.sync(); err != nil && err != io.EOF {
		return nil, err
	}
	return s, nil
}

// S3Upload spools writes in memory and uploads the object through the
// transfer manager when closed.
type S3Upload struct {
	*Bytes
	ctx      context.Context
	tm       *transfermanager.Client
	bucket   string
	key      string
	uploaded bool
}

// NewS3Upload opens s3://bucket/key for writing. Nothing is sent until
// Close.
func NewS3Upload(ctx context.Context, tm *transfermanager.Client, bucket, key string) *S3Upload {
	name := fmt.Sprintf("s3://%s/%s", bucket, key)
	return &S3Upload{Bytes: NewBytes(name, nil), ctx: ctx, tm: tm, bucket: bucket, key: key}
}

// Close uploads the spooled bytes and releases the handle. Only the first
// Close uploads; later calls are no-ops.
func (u *S3Upload) Close() error {
	if u.uploaded {
		return u.Bytes.Close()
	}
	u.uploaded = true
	_, err := u.tm.PutObject(u.ctx, &transfermanager.PutObjectInput{
		Bucket: u.bucket,
		Key:    u.key,
		Body:   bytes.NewReader(u.Bytes.Data()),
	})
	if cerr := u.Bytes.Close(); err == nil {
		err = cerr
	}
	return err
}

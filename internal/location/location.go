// Package location resolves resource identifiers to handles.
//
// An identifier is normally a file path, an s3:// URI, or an S3 object ARN.
// A Service additionally keeps a mapping table from synthetic identifiers
// to live handles, which is how container formats expose their entries to
// the rest of the pipeline without materializing them on disk.
package location

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	awsarn "github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/types"
)

// Ref is a parsed resource identifier.
type Ref struct {
	S3     bool
	Bucket string
	Key    string
	Path   string
}

// ParseRef classifies an identifier. s3:// URIs and S3 object ARNs resolve
// to bucket and key; everything else is a local path.
func ParseRef(id string) (Ref, error) {
	if strings.HasPrefix(id, "s3://") {
		u, err := url.Parse(id)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid s3 uri %q: %w", id, err)
		}
		if u.Host == "" {
			return Ref{}, fmt.Errorf("s3 uri %q must include a bucket", id)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return Ref{}, fmt.Errorf("s3 uri %q must include an object key", id)
		}
		return Ref{S3: true, Bucket: u.Host, Key: key}, nil
	}
	if strings.HasPrefix(id, "arn:") {
		a, err := awsarn.Parse(id)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid arn %q: %w", id, err)
		}
		if a.Service != "s3" {
			return Ref{}, fmt.Errorf("unsupported arn service %q", a.Service)
		}
		resource := strings.TrimPrefix(a.Resource, "bucket/")
		bucket, key, ok := strings.Cut(resource, "/")
		if !ok || bucket == "" || key == "" {
			return Ref{}, fmt.Errorf("arn %q is not an s3 object arn", id)
		}
		return Ref{S3: true, Bucket: bucket, Key: key}, nil
	}
	return Ref{Path: id}, nil
}

// Service opens and creates handles and tracks identifier mappings. The
// zero value is not usable; call NewService.
type Service struct {
	mu     sync.Mutex
	mapped map[string]handle.Handle

	s3Once sync.Once
	s3Err  error
	client *awss3.Client
	tm     *transfermanager.Client
}

// NewService returns a service with an empty mapping table.
func NewService() *Service {
	return &Service{mapped: make(map[string]handle.Handle)}
}

// Map binds id to an existing handle. Later Opens of id return that handle
// instead of touching storage. An empty handle removes the binding.
func (s *Service) Map(id string, h handle.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.mapped, id)
		return
	}
	s.mapped[id] = h
}

// Unmap removes the binding for id, returning the handle that was bound.
func (s *Service) Unmap(id string) handle.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.mapped[id]
	delete(s.mapped, id)
	return h
}

// Mapped returns the handle bound to id, or nil.
func (s *Service) Mapped(id string) handle.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapped[id]
}

// Open resolves id to a readable handle. Mapped identifiers come back as
// non-owning views: closing the view leaves the bound handle open, so the
// format that installed the mapping keeps sole responsibility for its
// lifetime.
func (s *Service) Open(ctx context.Context, id string) (handle.Handle, error) {
	if h := s.Mapped(id); h != nil {
		return &view{h}, nil
	}
	r, err := ParseRef(id)
	if err != nil {
		return nil, &types.IOError{ID: id, Op: "open", Err: err}
	}
	if r.S3 {
		client, _, err := s.s3(ctx)
		if err != nil {
			return nil, &types.IOError{ID: id, Op: "open", Err: err}
		}
		h, err := handle.NewS3(ctx, client, r.Bucket, r.Key)
		if err != nil {
			return nil, &types.IOError{ID: id, Op: "open", Err: err}
		}
		return h, nil
	}
	h, err := handle.OpenFile(r.Path)
	if err != nil {
		return nil, &types.IOError{ID: id, Op: "open", Err: err}
	}
	return h, nil
}

// Create resolves id to a writable handle, truncating local files and
// spooling S3 objects for upload on close.
func (s *Service) Create(ctx context.Context, id string) (handle.Handle, error) {
	if h := s.Mapped(id); h != nil {
		if !h.Writable() {
			return nil, &types.IOError{ID: id, Op: "create", Err: types.ErrReadOnly}
		}
		return &view{h}, nil
	}
	r, err := ParseRef(id)
	if err != nil {
		return nil, &types.IOError{ID: id, Op: "create", Err: err}
	}
	if r.S3 {
		_, tm, err := s.s3(ctx)
		if err != nil {
			return nil, &types.IOError{ID: id, Op: "create", Err: err}
		}
		return handle.NewS3Upload(ctx, tm, r.Bucket, r.Key), nil
	}
	h, err := handle.CreateFile(r.Path)
	if err != nil {
		return nil, &types.IOError{ID: id, Op: "create", Err: err}
	}
	return h, nil
}

// s3 builds the shared S3 client and transfer manager on first use.
func (s *Service) s3(ctx context.Context) (*awss3.Client, *transfermanager.Client, error) {
	s.s3Once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			s.s3Err = err
			return
		}
		s.client = awss3.NewFromConfig(cfg)
		s.tm = transfermanager.New(s.client, transfermanager.Options{})
	})
	return s.client, s.tm, s.s3Err
}

// view is a non-owning wrapper around a mapped handle.
type view struct {
	handle.Handle
}

func (*view) Close() error { return nil }

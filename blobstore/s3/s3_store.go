package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/kcombo/blobstore"
)

// errAborted is the error an aborted upload is cancelled with.
var errAborted = errors.New("s3: upload aborted")

// Client is the subset of the S3 API the store uses.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures New.
type Options struct {
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	PartSize     int64
}

// Option configures New.
type Option func(*Options)

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion overrides the region from the shared configuration.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint targets an S3-compatible endpoint and switches to path-style
// addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithPartSize sets the multipart upload part size.
func WithPartSize(n int64) Option {
	return func(o *Options) { o.PartSize = n }
}

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	partSize int64
}

// New loads the default AWS configuration and returns a store for bucket.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	opts := Options{PartSize: manager.DefaultUploadPartSize}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	s := NewStore(client, bucket, opts.Prefix)
	s.partSize = opts.PartSize
	return s, nil
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "datasets/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		partSize: manager.DefaultUploadPartSize,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open checks that the object exists and returns a handle for ranged reads.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Create starts a streaming upload. The object appears when Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = s.partSize
	})

	blob := &s3WritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// s3Blob implements blobstore.Blob
type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Close() error {
	return nil
}

func (b *s3Blob) Size() int64 {
	return b.size
}

func (b *s3Blob) get(ctx context.Context, off, end int64) (io.ReadCloser, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := min(off+int64(len(p))-1, b.size-1)
	body, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	want := int(end - off + 1)
	n, err := io.ReadFull(body, p[:want])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.size {
		return nil, io.EOF
	}
	return b.get(ctx, off, min(off+length-1, b.size-1))
}

// s3WritableBlob implements blobstore.WritableBlob
type s3WritableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (b *s3WritableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

func (b *s3WritableBlob) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

// Abort fails the upload; the manager cleans up any multipart state.
func (b *s3WritableBlob) Abort() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = b.pw.CloseWithError(errAborted)
	<-b.done
	return nil
}

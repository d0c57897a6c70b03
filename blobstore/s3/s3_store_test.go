package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kcombo/blobstore"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestStore_Open(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
			return *in.Bucket == "test-bucket" && *in.Key == "prefix/missing.bin"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "missing.bin")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
			return *in.Key == "prefix/points.bin"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(100)}, nil).Once()

		blob, err := store.Open(context.Background(), "points.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	client.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	client := new(mockClient)
	blob := &s3Blob{client: client, bucket: "b", key: "k", size: 10}

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()

	buf := make([]byte, 5)
	n, err := blob.ReadAt(context.Background(), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	// A read running past the end is clamped and reports EOF.
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("ld"))}, nil).Once()

	n, err = blob.ReadAt(context.Background(), buf, 8)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)

	_, err = blob.ReadAt(context.Background(), buf, 10)
	assert.Equal(t, io.EOF, err)

	client.AssertExpectations(t)
}

func TestBlob_NewReader(t *testing.T) {
	client := new(mockClient)
	blob := &s3Blob{client: client, bucket: "b", key: "k", size: 11}

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=0-10"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello world"))}, nil).Once()

	rc, err := blobstore.NewReader(context.Background(), blob)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestStore_Create(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "test-bucket", "prefix")

	var uploaded string
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "test-bucket" && *in.Key == "prefix/result.csv"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		data, _ := io.ReadAll(in.Body)
		uploaded = string(data)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	wb, err := store.Create(context.Background(), "result.csv")
	require.NoError(t, err)

	_, err = wb.Write([]byte("initialization centroids,distortion,centroids\n"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	assert.Equal(t, "initialization centroids,distortion,centroids\n", uploaded)
	client.AssertExpectations(t)
}

func TestStore_AbortDoesNotUpload(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "test-bucket", "")

	wb, err := store.Create(context.Background(), "result.csv")
	require.NoError(t, err)

	_, err = wb.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, wb.Abort())

	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

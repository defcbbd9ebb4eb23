package mocks

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

// Client is a testify mock of storage.Client.
type Client struct {
	mock.Mock
}

// TestingT is the subset of *testing.T the constructor needs.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// NewClient returns a mock that asserts its expectations when the test ends.
func NewClient(t TestingT) *Client {
	c := &Client{}
	c.Mock.Test(t)
	t.Cleanup(func() { c.AssertExpectations(t) })
	return c
}

// ExpectPut registers one successful upload to bucket under an object name
// starting with prefix. The returned slice is filled with the uploaded body.
func (m *Client) ExpectPut(bucket, prefix string) *[]byte {
	body := new([]byte)
	m.On("PutObject", mock.Anything, bucket,
		mock.MatchedBy(func(name string) bool { return strings.HasPrefix(name, prefix) }),
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if r, ok := args.Get(3).(io.Reader); ok {
				*body, _ = io.ReadAll(r)
			}
		}).
		Return(minio.UploadInfo{Bucket: bucket}, nil).Once()
	return body
}

// ListReturns makes ListObjects on bucket stream the given objects.
func (m *Client) ListReturns(bucket string, objects ...minio.ObjectInfo) {
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, o := range objects {
		ch <- o
	}
	close(ch)
	m.On("ListObjects", mock.Anything, bucket, mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
}

func (m *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *Client) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	info, _ := args.Get(0).(minio.UploadInfo)
	return info, args.Error(1)
}

func (m *Client) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	obj, _ := args.Get(0).(io.ReadCloser)
	return obj, args.Error(1)
}

func (m *Client) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	if ch, ok := args.Get(0).(<-chan minio.ObjectInfo); ok {
		return ch
	}
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

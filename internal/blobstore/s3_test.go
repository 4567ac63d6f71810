package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *mockAPI) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

var testOpts = Options{
	Region:       "us-east-1",
	User:         "minioadmin",
	Password:     "minioadmin",
	Bucket:       "memories",
	BaseEndpoint: "http://127.0.0.1:9000",
	URLExpiry:    7 * 24 * time.Hour,
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var captured s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&captured)
		}
		return &s3.Client{}
	}
	presignCalled := false
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		presignCalled = true
		return &s3.PresignClient{}
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "memories", s.Bucket())
	require.NotNil(t, captured.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *captured.BaseEndpoint)
	assert.True(t, captured.UsePathStyle)
	assert.True(t, presignCalled)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Store(context.Background(), testOpts)
	require.EqualError(t, err, "aws config: load-fail")
}

func TestPut(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		if rs, ok := in.Body.(io.Seeker); ok {
			_, _ = rs.Seek(0, io.SeekStart)
		}
		return aws.ToString(in.Bucket) == "memories" &&
			aws.ToString(in.Key) == "images/1_a.png" &&
			aws.ToString(in.ContentType) == "image/png" &&
			aws.ToInt64(in.ContentLength) == int64(len(pngBytes)) &&
			aws.ToString(in.IfNoneMatch) == "*" &&
			string(body) == string(pngBytes)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, s.Put(context.Background(), "images/1_a.png", pngBytes))
	api.AssertExpectations(t)
}

func TestPut_Error(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)
	boom := errors.New("denied")
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, boom).Once()

	err := s.Put(context.Background(), "images/1_a.png", pngBytes)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "images/1_a.png")
}

func TestPut_ExistingKeyIsNotOverwritten(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)
	api.On("PutObject", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}).Once()

	err := s.Put(context.Background(), "images/1_a.png", pngBytes)
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "images/1_a.png")
}

func TestURL_Presigned(t *testing.T) {
	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "memories", aws.ToString(in.Bucket))
		assert.Equal(t, "images/1_a.png", aws.ToString(in.Key))
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 7*24*time.Hour, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/memories/images/1_a.png?X-Amz-Signature=x"}, nil
	}

	s := NewS3StoreWithAPI(&mockAPI{}, &s3.PresignClient{}, testOpts)
	u, err := s.URL(context.Background(), "images/1_a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/memories/images/1_a.png?X-Amz-Signature=x", u)
}

func TestURL_PresignError(t *testing.T) {
	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}

	s := NewS3StoreWithAPI(&mockAPI{}, &s3.PresignClient{}, testOpts)
	_, err := s.URL(context.Background(), "images/1_a.png")
	require.ErrorContains(t, err, "presign-get-fail")
}

func TestURL_PublicBase(t *testing.T) {
	opts := testOpts
	opts.PublicBaseURL = "https://cdn.example.com/memories/"
	s := NewS3StoreWithAPI(&mockAPI{}, nil, opts)

	u, err := s.URL(context.Background(), "images/1_our day.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/memories/images/1_our%20day.png", u)
}

func TestDelete(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)

	api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Bucket) == "memories" && aws.ToString(in.Key) == "images/1_a.png"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()
	require.NoError(t, s.Delete(context.Background(), "images/1_a.png"))

	api.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("gone")).Once()
	require.ErrorContains(t, s.Delete(context.Background(), "images/2_b.png"), "gone")

	api.AssertExpectations(t)
}

func TestList_Paginates(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "images/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("images/1_a.png"), Size: aws.Int64(10), LastModified: aws.Time(t1)},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("images/2_b.png"), Size: aws.Int64(20), LastModified: aws.Time(t2)},
		},
	}, nil).Once()

	got, err := s.List(context.Background(), "images/")
	require.NoError(t, err)
	assert.Equal(t, []Blob{
		{Key: "images/1_a.png", Size: 10, LastModified: t1},
		{Key: "images/2_b.png", Size: 20, LastModified: t2},
	}, got)
	api.AssertExpectations(t)
}

func TestList_Error(t *testing.T) {
	api := &mockAPI{}
	s := NewS3StoreWithAPI(api, nil, testOpts)
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(nil, errors.New("no bucket")).Once()

	_, err := s.List(context.Background(), "images/")
	require.ErrorContains(t, err, "no bucket")
}

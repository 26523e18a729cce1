package discount

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"

	"orderdesk/internal/money"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves gzipped objects from memory.
type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)

	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write([]byte(body))
	_ = w.Close()

	return &s3.GetObjectOutput{Body: io.NopCloser(&buf)}, nil
}

// mockLoader is a function-backed Loader.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) (Table, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) (Table, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, path)
	}
	return nil, errors.New("not implemented")
}

func tableOf(discounts ...money.Discount) Table {
	t := newMapTable(len(discounts))
	for _, d := range discounts {
		t.Add(d)
	}
	return t
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"discounts/a.gz": "SAVE10,percentage,10\nFLAT5,fixed,5\n",
	}}
	loader := newS3Loader(client, "bucket", zerolog.Nop())

	table, err := loader.Load(context.Background(), "discounts/a.gz")

	require.NoError(t, err)
	assert.Equal(t, 2, table.Size())
	assert.Equal(t, []string{"discounts/a.gz"}, client.keys)

	_, err = loader.Load(context.Background(), "discounts/missing.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get object from S3")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	remote := &mockLoader{loadFunc: func(_ context.Context, path string) (Table, error) {
		assert.Equal(t, "discounts/test.gz", path, "S3 key should have prefix")
		return tableOf(money.Discount{Type: money.DiscountFixed, Value: 1, Code: "S3CODE"}), nil
	}}
	local := &mockLoader{loadFunc: func(context.Context, string) (Table, error) {
		t.Error("file loader should not be called when S3 succeeds")
		return nil, errors.New("should not be called")
	}}

	table, err := NewFallbackLoader(remote, local, "discounts/", zerolog.Nop()).Load(context.Background(), "data/test.gz")

	require.NoError(t, err)
	_, ok := table.Get("S3CODE")
	assert.True(t, ok)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	remote := &mockLoader{loadFunc: func(context.Context, string) (Table, error) {
		return nil, errors.New("S3 connection failed")
	}}
	local := &mockLoader{loadFunc: func(_ context.Context, path string) (Table, error) {
		assert.Equal(t, "data/test.gz", path, "local file path should not have prefix")
		return tableOf(money.Discount{Type: money.DiscountFixed, Value: 1, Code: "LOCAL"}), nil
	}}

	table, err := NewFallbackLoader(remote, local, "discounts/", zerolog.Nop()).Load(context.Background(), "data/test.gz")

	require.NoError(t, err)
	_, ok := table.Get("LOCAL")
	assert.True(t, ok)
}

func TestFallbackLoader_WithoutS3(t *testing.T) {
	called := false
	local := &mockLoader{loadFunc: func(context.Context, string) (Table, error) {
		called = true
		return tableOf(), nil
	}}

	_, err := NewFallbackLoader(nil, local, "discounts/", zerolog.Nop()).Load(context.Background(), "test.gz")

	require.NoError(t, err)
	assert.True(t, called)
}

package output

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"geomancer/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestStorageStore_WriteAndOpen(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	store := NewStorageStore(client, "geo", "results", func(name string) string { return "https://geo.test/download/" + name }, nil)
	store.now = func() time.Time { return fixedNow }
	store.newID = func() string { return "abcdef12-0000" }

	name := "cities_20240102T030405Z_abcdef12.csv"
	client.On("PutObject", ctx, "geo", "results/"+name, mock.Anything, mock.AnythingOfType("int64"),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == ContentTypeCSV }),
	).Return(minio.UploadInfo{}, nil)

	locator, err := store.WriteTable(ctx, "cities.csv", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "https://geo.test/download/"+name, locator)

	client.On("StatObject", ctx, "geo", "results/"+name, minio.StatObjectOptions{}).Return(minio.ObjectInfo{Size: 42}, nil)
	client.On("GetObject", ctx, "geo", "results/"+name, minio.GetObjectOptions{}).Return(io.NopCloser(strings.NewReader("csv")), nil)

	art, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer art.Body.Close()
	assert.Equal(t, int64(42), art.Size)
	assert.Equal(t, ContentTypeCSV, art.ContentType)

	_, err = store.Open(ctx, "../secret")
	assert.ErrorIs(t, err, ErrNotFound)
	client.AssertExpectations(t)
}

func TestStorageStore_UploadFails(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "geo", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))
	store := NewStorageStore(client, "geo", "results/", nil, nil)

	_, err := store.WriteTable(context.Background(), "a.xlsx", sampleTable())
	assert.ErrorContains(t, err, "access denied")
}

func TestStorageStore_Expire(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	store := NewStorageStore(client, "geo", "results/", nil, nil)
	store.now = func() time.Time { return fixedNow }

	listCh := make(chan minio.ObjectInfo, 3)
	listCh <- minio.ObjectInfo{Key: "results/old.csv", LastModified: fixedNow.Add(-time.Hour)}
	listCh <- minio.ObjectInfo{Key: "results/older.xlsx", LastModified: fixedNow.Add(-2 * time.Hour)}
	listCh <- minio.ObjectInfo{Key: "results/new.csv", LastModified: fixedNow.Add(-time.Minute)}
	close(listCh)
	client.On("ListObjects", ctx, "geo", minio.ListObjectsOptions{Prefix: "results/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(listCh))

	errCh := make(chan minio.RemoveObjectError, 1)
	errCh <- minio.RemoveObjectError{ObjectName: "results/older.xlsx", Err: errors.New("locked")}
	close(errCh)
	var removedKeys []string
	client.On("RemoveObjects", ctx, "geo", mock.Anything, minio.RemoveObjectsOptions{}).
		Run(func(args mock.Arguments) {
			for obj := range args.Get(2).(<-chan minio.ObjectInfo) {
				removedKeys = append(removedKeys, obj.Key)
			}
		}).
		Return((<-chan minio.RemoveObjectError)(errCh))

	n, err := store.Expire(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"results/old.csv", "results/older.xlsx"}, removedKeys)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "results")
	store, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	store.now = func() time.Time { return fixedNow }
	store.newID = func() string { return "feedbeef" }

	locator, err := store.WriteTable(ctx, "cities.csv", sampleTable())
	require.NoError(t, err)
	name := "cities_20240102T030405Z_feedbeef.csv"
	assert.Equal(t, "/download/"+name, locator)
	assert.Equal(t, filepath.Join(dir, name), store.Path(name))

	art, err := store.Open(ctx, name)
	require.NoError(t, err)
	body, err := io.ReadAll(art.Body)
	require.NoError(t, err)
	require.NoError(t, art.Body.Close())
	assert.True(t, strings.HasPrefix(string(body), "Name,City"))

	_, err = store.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	old := filepath.Join(dir, "old.csv")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(old, fixedNow.Add(-time.Hour), fixedNow.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(dir, name), fixedNow, fixedNow))

	n, err := store.Expire(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

package geomance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"
	"testing"

	"geomancer/core/geo"
	"geomancer/core/merge"
	"geomancer/core/storage/mocks"
	"geomancer/feature/geomance/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_SubmitAndProcess(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	key, err := env.service.Submit(ctx, "people.csv", []byte(peopleCSV), cityDefs("total_pop"))
	require.NoError(t, err)

	_, ready, err := env.service.Result(ctx, key)
	require.NoError(t, err)
	assert.False(t, ready)

	processed, err := env.worker.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	res, ready, err := env.service.Result(ctx, key)
	require.NoError(t, err)
	require.True(t, ready)
	require.True(t, res.OK(), res.Message())

	var summary merge.Summary
	require.NoError(t, json.Unmarshal(res.Result, &summary))
	assert.Equal(t, 3, summary.NumRows)
	assert.Equal(t, 2, summary.NumMatches)
	assert.Equal(t, 1, summary.NumMissing)
	assert.Equal(t, "city", summary.GeographyColumn)
	assert.Equal(t, []string{"Total Population (City)"}, summary.ColsAdded)
	require.True(t, strings.HasPrefix(summary.DownloadURL, "/download/people_"))

	art, err := env.service.Download(ctx, path.Base(summary.DownloadURL))
	require.NoError(t, err)
	body, err := io.ReadAll(art.Body)
	require.NoError(t, err)
	require.NoError(t, art.Body.Close())
	assert.Equal(t,
		"Name,City,Total Population (City)\nAlice,\"Chicago, IL\",2700000\nBob,,\nCarol,\"Chicago, IL\",2700000\n",
		string(body))

	// results are handed out once
	_, ready, err = env.service.Result(ctx, key)
	require.NoError(t, err)
	assert.False(t, ready)

	jobs, err := env.service.Jobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, key, jobs[0].Key)
	assert.Equal(t, models.StatusOK, jobs[0].Status)
	assert.Equal(t, 2, jobs[0].NumMatches)
	assert.Equal(t, 1, jobs[0].ColsAdded)
	assert.NotNil(t, jobs[0].FinishedAt)
}

func TestService_SubmitRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		file string
		data string
		defs map[string]merge.FieldSpec
		is   error
	}{
		{
			name: "invalid zip codes",
			file: "zips.csv",
			data: "Name,Zip\nA,60601\nB,6060\nC,abcde\n",
			defs: map[string]merge.FieldSpec{"1": {Type: "zip_5", AppendColumns: []string{"total_pop"}}},
			is:   geo.ErrInvalidGeography,
		},
		{
			name: "unsupported combination",
			file: "mixed.csv",
			data: "Zip,City\n60601,Chicago\n",
			defs: map[string]merge.FieldSpec{"0;1": {Type: "zip_5;city", AppendColumns: []string{"total_pop"}}},
			is:   geo.ErrUnsupportedCombination,
		},
		{
			name: "legacy excel",
			file: "old.xls",
			data: "binary",
			defs: cityDefs("total_pop"),
		},
		{
			name: "no data columns",
			file: "people.csv",
			data: peopleCSV,
			defs: cityDefs(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Submit(ctx, tt.file, []byte(tt.data), tt.defs)
			var ierr *InputError
			require.ErrorAs(t, err, &ierr)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}

	pending, err := env.queue.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestService_ValidationMessageNamesValues(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.service.Submit(context.Background(), "zips.csv", []byte("Zip\n6060\nabcde\n60601\n"),
		map[string]merge.FieldSpec{"0": {Type: "zip_5", AppendColumns: []string{"total_pop"}}})
	assert.EqualError(t, err, "The following values are not valid 5-digit zip codes: 6060, abcde")
}

func TestService_NoGeographiesMatched(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	key, err := env.service.Submit(ctx, "empty.csv", []byte("Name,City\nAlice,\nBob,  \n"), cityDefs("total_pop"))
	require.NoError(t, err)
	_, err = env.worker.ProcessOne(ctx)
	require.NoError(t, err)

	res, ready, err := env.service.Result(ctx, key)
	require.NoError(t, err)
	require.True(t, ready)
	assert.False(t, res.OK())
	assert.Equal(t, merge.ErrNoGeographiesMatched.Error(), res.Message())

	jobs, err := env.service.Jobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.StatusError, jobs[0].Status)
	assert.Equal(t, merge.ErrNoGeographiesMatched.Error(), jobs[0].Error)
}

func TestService_BlankRowsSurviveMerge(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	key, err := env.service.Submit(ctx, "gaps.csv", []byte("Name,City\nAlice,\"Chicago, IL\"\n,\nCarol,\"Chicago, IL\"\n"), cityDefs("total_pop"))
	require.NoError(t, err)
	_, err = env.worker.ProcessOne(ctx)
	require.NoError(t, err)

	res, ready, err := env.service.Result(ctx, key)
	require.NoError(t, err)
	require.True(t, ready)
	require.True(t, res.OK(), res.Message())

	var summary merge.Summary
	require.NoError(t, json.Unmarshal(res.Result, &summary))
	assert.Equal(t, 3, summary.NumRows)
	assert.Equal(t, 2, summary.NumMatches)
	assert.Equal(t, 1, summary.NumMissing)

	art, err := env.service.Download(ctx, path.Base(summary.DownloadURL))
	require.NoError(t, err)
	body, err := io.ReadAll(art.Body)
	require.NoError(t, err)
	require.NoError(t, art.Body.Close())
	assert.Equal(t,
		"Name,City,Total Population (City)\nAlice,\"Chicago, IL\",2700000\n,,\nCarol,\"Chicago, IL\",2700000\n",
		string(body))
}

func TestService_UploadsThroughObjectStorage(t *testing.T) {
	client := new(mocks.Client)
	env := newTestEnv(t, &Uploads{Client: client, Bucket: "geo", Prefix: "uploads/"})
	ctx := context.Background()

	var object string
	var stored []byte
	client.On("PutObject", mock.Anything, "geo", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "uploads/") && strings.HasSuffix(name, "/people.csv")
	}), mock.Anything, int64(len(peopleCSV)), mock.Anything).
		Run(func(args mock.Arguments) {
			object = args.String(2)
			stored, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	key, err := env.service.Submit(ctx, "people.csv", []byte(peopleCSV), cityDefs("total_pop"))
	require.NoError(t, err)
	assert.Equal(t, peopleCSV, string(stored))

	client.On("GetObject", mock.Anything, "geo", object, mock.Anything).
		Return(io.NopCloser(bytes.NewReader(stored)), nil)
	client.On("RemoveObjects", mock.Anything, "geo", mock.Anything, mock.Anything).
		Return(nil)

	_, err = env.worker.ProcessOne(ctx)
	require.NoError(t, err)
	res, ready, err := env.service.Result(ctx, key)
	require.NoError(t, err)
	require.True(t, ready)
	assert.True(t, res.OK(), res.Message())
	client.AssertExpectations(t)
}

func TestService_ResultRejectsForeignKeys(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, err := env.service.Result(context.Background(), "session:admin")
	assert.True(t, errors.Is(err, ErrUnknownJob))
}

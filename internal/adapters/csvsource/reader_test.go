package csvsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\xef\xbb\xbfcollision_id,borough,crash_datetime,latitude,longitude,number_of_persons_injured\n" +
	"4455765,BROOKLYN,2021-09-11 09:35:00,40.667202,-73.8665,2\n" +
	"4513547,,2021-12-14 08:13:00,,,0\n" +
	"4541903,QUEENS,not a date,40.7,\"-73.8\"\n"

func TestReader(t *testing.T) {
	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, "collision_id", r.Header()[0])

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(4455765), first["collision_id"])
	assert.Equal(t, "BROOKLYN", first["borough"])
	assert.Equal(t, 40.667202, first["latitude"])
	assert.Equal(t, int64(2), first["number_of_persons_injured"])

	second, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, second["borough"])
	assert.True(t, second.Has("latitude"))

	third, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, third["number_of_persons_injured"])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFile_LoadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crashes.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	src := NewFile(path)
	all, err := src.LoadAll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2021, all[0]["year"])
	assert.Equal(t, 9, all[0]["month"])
	assert.Equal(t, 11, all[0]["day"])
	assert.False(t, all[2].Has("year"))

	limited, err := src.LoadAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.csv")).LoadAll(context.Background(), 0)
	assert.Error(t, err)
}

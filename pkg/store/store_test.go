package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, bdb.Close())
	})
	return &DB{DB: bdb}
}

func TestUploads(t *testing.T) {
	dt := time.Date(2025, time.January, 11, 12, 0, 0, 0, time.UTC)
	up := Upload{
		CreatedAt:   dt,
		Sum:         "abcdef",
		BaseCodec:   "json",
		TargetCodec: "json",
	}

	d := newDB(t)
	require.NoError(t, d.PutUpload("hello", up))

	{
		res, err := d.GetUpload("hello")
		assert.NoError(t, err)
		assert.Equal(t, up, res)
	}
	{
		has, err := d.HasUpload("hello")
		assert.NoError(t, err)
		assert.Equal(t, true, has)
	}
	{
		res, err := d.GetUpload("nope")
		assert.NoError(t, err)
		assert.Equal(t, Upload{}, res)
	}
	{
		has, err := d.HasUpload("nope")
		assert.NoError(t, err)
		assert.Equal(t, false, has)
	}
}

func TestSetPatchID(t *testing.T) {
	d := newDB(t)
	require.NoError(t, d.PutUpload("hello", Upload{Sum: "abcdef"}))
	require.NoError(t, d.SetPatchID("hello", "patch123"))

	res, err := d.GetUpload("hello")
	require.NoError(t, err)
	assert.Equal(t, "patch123", res.PatchID)

	err = d.SetPatchID("missing", "x")
	assert.Error(t, err)
}

func TestAddAmountsAndCompare(t *testing.T) {
	type call struct {
		name   string
		d      UsageStat
		lim    UploadLimits
		result error
	}
	tt := []struct {
		name  string
		calls []call
	}{
		{
			"excess_calls",
			[]call{
				{"morgan", UsageStat{Period: "2025/1", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 1 << 30, MaxCalls: 1}, nil},
				{"morgan", UsageStat{Period: "2025/1", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 1 << 30, MaxCalls: 1}, ErrLimitsExceeded},
			},
		},
		{
			"excess_bytes",
			[]call{
				{"morgan", UsageStat{Period: "2025/1", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 190, MaxCalls: 10}, nil},
				{"morgan", UsageStat{Period: "2025/1", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 190, MaxCalls: 10}, ErrLimitsExceeded},
			},
		},
		{
			"excess_calls_switch",
			[]call{
				{"morgan", UsageStat{Period: "2025/1", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 1 << 30, MaxCalls: 1}, nil},
				{"morgan", UsageStat{Period: "2025/2", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 1 << 30, MaxCalls: 1}, nil},
				{"morgan", UsageStat{Period: "2025/2", NumBytes: 100, NumCalls: 1}, UploadLimits{MaxBytes: 1 << 30, MaxCalls: 1}, ErrLimitsExceeded},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := newDB(t)
			for _, cal := range tc.calls {
				err := db.AddAmountsAndCompare(cal.name, cal.d, cal.lim)
				if cal.result == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, cal.result)
				}
			}
		})
	}
}

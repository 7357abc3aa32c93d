// Package store is the bbolt-backed metadata store behind the semdiff
// server: it tracks uploaded document pairs and their computed patches by
// content-addressed id, and enforces a per-remote-address weekly upload
// quota. Adapted from the teacher's pkg/db, generalized from a single
// File record to an Upload record that also carries the patch's own
// blobstore id (computing a patch is optional, so it may be empty).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// DB is a thin wrapper around a Bolt database. It centralizes functions
// which interact with the database.
type DB struct {
	DB *bbolt.DB

	err  error
	once sync.Once
}

var (
	bUploads = []byte("uploads")
	bStats   = []byte("stats")

	buckets = [...][]byte{
		bUploads,
		bStats,
	}
)

func (d *DB) init() error {
	d.once.Do(d._init)
	return d.err
}

func (d *DB) _init() {
	err := d.DB.Update(func(tx *bbolt.Tx) error {
		for _, buck := range buckets {
			if _, err := tx.CreateBucketIfNotExists(buck); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		d.err = fmt.Errorf("store: initialization error: %w", err)
	}
}

// Upload
// -----------------------------------------------------------------------------

// Upload represents a base/target document pair submitted for diffing.
// The bundle (base document and target document) lives in a
// blobstore.Storage under the same id, and the serialized patch, if
// computed, under PatchID; Upload
// is only the metadata bboltdb needs to answer "does this id exist" and
// "did we already diff it" without touching the blob.
type Upload struct {
	CreatedAt time.Time `json:"created_at"`
	// Sum is the hex-encoded SHA-256 of the stored bundle.
	Sum string `json:"sum"`
	// BaseCodec and TargetCodec name the pkg/codec format used to decode
	// each side (e.g. "json", "yaml"), empty if the upload predates codec
	// tagging.
	BaseCodec   string `json:"base_codec,omitempty"`
	TargetCodec string `json:"target_codec,omitempty"`
	// PatchID is the blobstore id of the serialized patch.Patch computed
	// for this upload, if one has been computed and cached. Empty means
	// the patch has not been computed yet (or couldn't be, e.g. the two
	// documents don't share a codec).
	PatchID string `json:"patch_id,omitempty"`
}

func (u Upload) IsZero() bool {
	return u.Sum == ""
}

func (d *DB) HasUpload(id string) (bool, error) {
	if err := d.init(); err != nil {
		return false, err
	}

	var has bool
	err := d.DB.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(bUploads).Get([]byte(id)) != nil
		return nil
	})
	return has, err
}

func (d *DB) PutUpload(id string, u Upload) error {
	if err := d.init(); err != nil {
		return err
	}

	encoded, err := json.Marshal(u)
	if err != nil {
		return err
	}

	return d.DB.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bUploads).Put([]byte(id), encoded)
	})
}

func (d *DB) GetUpload(id string) (Upload, error) {
	if err := d.init(); err != nil {
		return Upload{}, err
	}

	var buf []byte
	err := d.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bUploads).Get([]byte(id))
		buf = append(buf, data...)
		return nil
	})
	if err != nil || len(buf) == 0 {
		return Upload{}, err
	}

	var u Upload
	err = json.Unmarshal(buf, &u)
	return u, err
}

// SetPatchID records the blobstore id of a computed patch against an
// already-stored upload.
func (d *DB) SetPatchID(id, patchID string) error {
	if err := d.init(); err != nil {
		return err
	}

	u, err := d.GetUpload(id)
	if err != nil {
		return err
	}
	if u.IsZero() {
		return fmt.Errorf("store: no upload with id %q", id)
	}
	u.PatchID = patchID
	return d.PutUpload(id, u)
}

// UsageStat
// -----------------------------------------------------------------------------

type UsageStat struct {
	Period   string `json:"p"`
	NumBytes uint64 `json:"nb"`
	NumCalls uint64 `json:"nc"`
}

type UploadLimits struct {
	MaxBytes uint64
	MaxCalls uint64
}

var ErrLimitsExceeded = errors.New("store: limits exceeded")

// AddAmountsAndCompare increases the stats for name, and ensures that the
// updated stats are within the given limits. If the limits are exceeded,
// [ErrLimitsExceeded] is returned and the stats are not updated. A zero
// MaxBytes or MaxCalls is not enforced.
func (d *DB) AddAmountsAndCompare(name string, deltaStat UsageStat, limits UploadLimits) error {
	if err := d.init(); err != nil {
		return err
	}
	return d.DB.Batch(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bStats)
		val := bk.Get([]byte(name))
		var stat UsageStat
		if len(val) != 0 {
			if err := json.Unmarshal(val, &stat); err != nil {
				return err
			}
		}

		if stat.Period == deltaStat.Period {
			stat.NumCalls += deltaStat.NumCalls
			stat.NumBytes += deltaStat.NumBytes
		} else {
			// period switched: start fresh from deltaStat.
			stat = deltaStat
		}

		if (limits.MaxBytes != 0 && stat.NumBytes > limits.MaxBytes) ||
			(limits.MaxCalls != 0 && stat.NumCalls > limits.MaxCalls) {
			return ErrLimitsExceeded
		}

		res, err := json.Marshal(stat)
		if err != nil {
			return err
		}
		return bk.Put([]byte(name), res)
	})
}

// Package blobstore is the content-addressable blob storage layer behind
// semdiff's upload bundles: gzip+tar archives of (base document, target
// document), keyed by the cford32-encoded hash the server computes on
// upload, plus each upload's serialized patch as a separate blob. Adapted from the teacher's root storage.go,
// generalized from package-private to an importable package and with
// structured logging in place of log.Printf.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when id has no stored blob.
var ErrNotFound = errors.New("blobstore: not found")

// Storage stores opaque byte blobs by content-addressed id. File sizes are
// expected to be small (patch bundles, not raw media), hence no
// io.Reader support. Storage must not delete blobs on its own.
type Storage interface {
	// Get returns ErrNotFound if id does not exist.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put overwrites any existing blob at id.
	Put(ctx context.Context, id string, data []byte) error
	// Del returns nil if id does not exist.
	Del(ctx context.Context, id string) error
}

// ListStorage adds the List operation to Storage, allowing an on-disk
// cache to bootstrap itself from whatever's already there.
type ListStorage interface {
	Storage
	// List calls cb once per stored blob. Callers must not retain b beyond
	// the call.
	List(ctx context.Context, cb func(id string, b []byte) error) error
}

type minioStorage struct {
	cl         *minio.Client
	bucketName string
}

var _ Storage = (*minioStorage)(nil)

// NewMinioStorage wraps an S3-compatible bucket (via minio-go) as a
// Storage. Used as the optional permanent backing store behind a
// CachedStorage.
func NewMinioStorage(cl *minio.Client, bucketName string) Storage {
	return &minioStorage{cl: cl, bucketName: bucketName}
}

func (m *minioStorage) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := m.cl.GetObject(ctx, m.bucketName, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (m *minioStorage) Put(ctx context.Context, id string, data []byte) error {
	_, err := m.cl.PutObject(ctx, m.bucketName, id,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (m *minioStorage) Del(ctx context.Context, id string) error {
	return m.cl.RemoveObject(ctx, m.bucketName, id, minio.RemoveObjectOptions{})
}

type dbStorage struct {
	db         *bbolt.DB
	bucketName []byte
}

var _ ListStorage = (*dbStorage)(nil)

// NewDBStorage creates a bbolt-backed Storage, ensuring bucketName exists.
// It panics if the bucket cannot be created (an unwritable db file is a
// startup-time failure, not a runtime one).
func NewDBStorage(db *bbolt.DB, bucketName string) Storage {
	name := []byte(bucketName)
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		panic(fmt.Errorf("blobstore: error creating bucket in db: %w", err))
	}
	return &dbStorage{db: db, bucketName: name}
}

func (m *dbStorage) Get(ctx context.Context, id string) ([]byte, error) {
	var val []byte
	err := m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		val = append(val, bx.Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, ErrNotFound
	}
	return val, nil
}

func (m *dbStorage) Put(ctx context.Context, id string, data []byte) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Put([]byte(id), data)
	})
}

func (m *dbStorage) Del(ctx context.Context, id string) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Delete([]byte(id))
	})
}

func (m *dbStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	return m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		return bx.ForEach(func(k, v []byte) error {
			return cb(string(k), v)
		})
	})
}

type cachedObject struct {
	id          string
	size        uint64
	lastAccess  time.Time
	lastAccessM sync.Mutex
	ready       chan struct{}
}

func (c *cachedObject) access() {
	n := time.Now()
	if c.lastAccessM.TryLock() {
		c.lastAccess = n
		c.lastAccessM.Unlock()
	}
}

// CachedStorage fronts a permanent Storage with a bbolt-backed cache,
// evicting least-recently-accessed blobs once the cache grows past
// maxSize via a background goroutine.
type CachedStorage struct {
	cache     ListStorage
	permanent Storage
	maxSize   uint64 // bytes. actual storage may be slightly higher.
	log       logrus.FieldLogger

	sync.RWMutex
	objects map[string]*cachedObject
	// send in this channel after adding new objects.
	cleaning chan struct{}
}

// NewCachedStorage constructs a CachedStorage, pre-loading cache's
// existing contents as the initial last-access index.
func NewCachedStorage(cache ListStorage, permanent Storage, maxSize uint64, log logrus.FieldLogger) (*CachedStorage, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	objects := make(map[string]*cachedObject)
	ready := make(chan struct{})
	close(ready)
	err := cache.List(context.Background(), func(id string, b []byte) error {
		objects[id] = &cachedObject{
			id:         id,
			size:       uint64(len(b)),
			lastAccess: time.Now(),
			ready:      ready,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c := &CachedStorage{
		cache:     cache,
		permanent: permanent,
		maxSize:   maxSize,
		log:       log,

		objects:  objects,
		cleaning: make(chan struct{}, 1),
	}
	go c.cleaner()
	return c, nil
}

var _ Storage = (*CachedStorage)(nil)

const cleanSleep = time.Second

func (c *CachedStorage) cacheSize() uint64 {
	var sz uint64
	c.RLock()
	for _, obj := range c.objects {
		sz += obj.size
	}
	c.RUnlock()
	return sz
}

func (c *CachedStorage) evict(els []*cachedObject) {
	// We're essentially putting the c.objects map in read-only while evicting
	// cache. This is hacky, but it avoids race conditions, ie. deleting in the
	// underlying cache something created in the meantime.
	c.RLock()
	defer c.RUnlock()
	for _, el := range els {
		if _, ok := c.objects[el.id]; ok {
			// created in the meantime
			continue
		}
		if err := c.cache.Del(context.Background(), el.id); err != nil {
			c.log.WithError(err).WithField("id", el.id).Warn("blobstore: error deleting in cache eviction")
		}
	}
}

func (c *CachedStorage) doClean() {
	c.Lock()
	defer c.Unlock()

	objects := make([]*cachedObject, 0, len(c.objects))
	var sz uint64
	for _, obj := range c.objects {
		objects = append(objects, obj)
		obj.lastAccessM.Lock()
		sz += obj.size
	}

	slices.SortFunc(objects, func(i, j *cachedObject) int {
		return i.lastAccess.Compare(j.lastAccess)
	})

	// Target reaching 95% of maxSize, to give some leeway until next doClean.
	collectTarget := (sz - c.maxSize) + c.maxSize/20
	var collected uint64
	var del []*cachedObject

	for i, obj := range objects {
		if collected >= collectTarget {
			if del == nil {
				del = objects[:i]
			}
			obj.lastAccessM.Unlock()
		} else {
			collected += obj.size
			delete(c.objects, obj.id)
		}
	}
	if del == nil {
		del = objects
	}

	go c.evict(del)
}

func (c *CachedStorage) cleaner() {
	for range c.cleaning {
		sz := c.cacheSize()
		if sz >= c.maxSize {
			c.doClean()
		}
		time.Sleep(cleanSleep)
	}
}

func (c *CachedStorage) cacheHas(id string) bool {
	c.RWMutex.RLock()
	obj, ok := c.objects[id]
	c.RWMutex.RUnlock()
	if !ok {
		return false
	}
	<-obj.ready
	if obj.size == 0 {
		return false
	}
	obj.access()
	return true
}

func (c *CachedStorage) cacheStore(ctx context.Context, id string, b []byte, x *cachedObject) {
	if err := c.cache.Put(ctx, id, b); err != nil {
		c.log.WithError(err).WithField("id", id).Warn("blobstore: cache does not correctly Put objects")
		return
	}
	x.lastAccess = time.Now()
	x.size = uint64(len(b))

	select {
	case c.cleaning <- struct{}{}:
	default:
	}
}

// Get returns the blob at id, consulting the cache before falling back to
// the permanent store.
func (c *CachedStorage) Get(ctx context.Context, id string) ([]byte, error) {
	if c.cacheHas(id) {
		return c.cache.Get(ctx, id)
	}

	co, ours := &cachedObject{id: id, ready: make(chan struct{})}, false
	c.Lock()
	if mapObject, ok := c.objects[id]; ok {
		co = mapObject
	} else {
		c.objects[id] = co
		ours = true
	}
	c.Unlock()

	if !ours {
		<-co.ready
		if co.size > 0 {
			return c.cache.Get(ctx, id)
		}
		return nil, ErrNotFound
	}

	defer close(co.ready)
	b, err := c.permanent.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.cacheStore(ctx, id, b, co)

	return b, nil
}

// Put writes data to the permanent store, then the cache.
func (c *CachedStorage) Put(ctx context.Context, id string, data []byte) error {
	if err := c.permanent.Put(ctx, id, data); err != nil {
		return err
	}
	co := &cachedObject{id: id, ready: make(chan struct{})}
	c.Lock()
	c.objects[id] = co
	c.Unlock()

	defer close(co.ready)
	c.cacheStore(ctx, id, data, co)

	return nil
}

// Del removes id from the permanent store, then the cache.
func (c *CachedStorage) Del(ctx context.Context, id string) error {
	if err := c.permanent.Del(ctx, id); err != nil {
		return err
	}

	c.Lock()
	_, exist := c.objects[id]
	delete(c.objects, id)
	c.Unlock()
	if !exist {
		return nil
	}

	if err := c.cache.Del(ctx, id); err != nil {
		c.log.WithError(err).WithField("id", id).Warn("blobstore: cache does not correctly Del objects")
	}
	return nil
}

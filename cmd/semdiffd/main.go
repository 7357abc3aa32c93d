// Command semdiffd runs the semdiff HTTP service: upload two documents,
// get back their semantic patch, and browse/apply/intersect it afterwards.
// Adapted from the teacher's root main.go, generalized to wire
// pkg/blobstore + pkg/store + pkg/server instead of the teacher's
// inlined storage.go/db.go/pkg/http.
package main

import (
	"flag"
	"net/http"
	"os"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/thehowl/semdiff/pkg/blobstore"
	"github.com/thehowl/semdiff/pkg/server"
	"github.com/thehowl/semdiff/pkg/store"
)

type options struct {
	listenAddr     string
	publicURL      string
	dbFile         string
	s3Endpoint     string
	s3AccessKey    string
	s3AccessSecret string
	s3Bucket       string
	cacheMaxBytes  uint64
	maxBytesWeek   uint64
	maxCallsWeek   uint64
}

func defaultEnv(s, def string) string {
	if v, ok := os.LookupEnv(s); ok {
		return v
	}
	return def
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func main() {
	var opts options
	stringVar(&opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&opts.publicURL, "public-url", "http://localhost:18844", "public url for the server, used in the curl example")
	stringVar(&opts.dbFile, "db-file", "data/db.bolt", "bbolt database file. acts as a cache when s3 is configured, "+
		"or as the permanent bundle store otherwise")
	stringVar(&opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint for permanent bundle storage")
	stringVar(&opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&opts.s3Bucket, "s3-bucket", "", "s3 bucket")
	flag.Uint64Var(&opts.cacheMaxBytes, "cache-max-bytes", 1<<30, "max size of the local bundle cache in bytes, when s3 is configured")
	flag.Uint64Var(&opts.maxBytesWeek, "max-bytes-week", 0, "max bytes a remote address may upload per week (0 disables the quota)")
	flag.Uint64Var(&opts.maxCallsWeek, "max-calls-week", 0, "max uploads a remote address may make per week (0 disables the quota)")
	flag.Parse()

	log := logrus.StandardLogger()

	bdb, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		log.WithError(err).Fatal("opening database")
	}

	srv := &server.Server{
		PublicURL: opts.publicURL,
		DB:        &store.DB{DB: bdb},
		Log:       log,
		Limits:    store.UploadLimits{MaxBytes: opts.maxBytesWeek, MaxCalls: opts.maxCallsWeek},
	}

	if opts.s3Endpoint == "" {
		srv.Storage = blobstore.NewDBStorage(bdb, "storage")
	} else {
		minioClient, err := minio.New(opts.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
			Secure: true,
		})
		if err != nil {
			log.WithError(err).Fatal("initializing minio client")
		}
		permanent := blobstore.NewMinioStorage(minioClient, opts.s3Bucket)
		cache := blobstore.NewDBStorage(bdb, "cache").(blobstore.ListStorage)
		cached, err := blobstore.NewCachedStorage(cache, permanent, opts.cacheMaxBytes, log)
		if err != nil {
			log.WithError(err).Fatal("initializing cached storage")
		}
		srv.Storage = cached
	}

	log.WithField("addr", opts.listenAddr).Info("listening")
	log.Fatal(http.ListenAndServe(opts.listenAddr, srv.Router()))
}

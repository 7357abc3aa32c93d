// Package server is the HTTP service fronting semdiff: it accepts a base
// and target document, computes the semantic patch between them, and
// exposes the result for browsing, raw retrieval, replay (apply) and
// conflict analysis (intersect) of previously uploaded pairs. Adapted from
// the teacher's pkg/http, generalized from a line-diff viewer to a
// structural-patch service.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thehowl/semdiff/internal/diff"
	"github.com/thehowl/semdiff/pkg/blobstore"
	"github.com/thehowl/semdiff/pkg/store"
	"github.com/thehowl/semdiff/templates"
)

// Server wires together the blob bundle storage, the upload metadata
// store, and the diff/apply/intersect engines behind the HTTP API.
type Server struct {
	PublicURL string
	Storage   blobstore.Storage
	DB        *store.DB
	Output    io.Writer
	Log       logrus.FieldLogger

	// Limits bounds weekly per-remote-address upload usage. The zero value
	// disables quota enforcement.
	Limits store.UploadLimits
}

func (s *Server) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Router builds the chi routing tree for the service.
func (s *Server) Router() chi.Router {
	if s.Output == nil {
		s.Output = os.Stdout
	}
	rt := chi.NewRouter()
	rt.Use(
		requestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger: log.New(s.Output, "", log.LstdFlags),
		}),
		middleware.Recoverer,
		middleware.Timeout(time.Second*60),
	)
	rt.Get("/", s.index)
	rt.Post("/", s.e(s.upload))
	rt.Get("/{id}", s.e(s.serveDiff))
	rt.Get("/{id}/base", s.serveDocument(0))
	rt.Get("/{id}/target", s.serveDocument(1))
	rt.Get("/{id}/apply", s.e(s.serveApply))
	rt.Get("/intersect", s.e(s.serveIntersect))
	return rt
}

const (
	ctHeader = "Content-Type"
	ctPlain  = "text/plain; charset=utf-8"
	ctJSON   = "application/json; charset=utf-8"
)

var (
	reBrowser = regexp.MustCompile("(?i)(?:chrome|firefox|safari|gecko)/")
	errUsage  = errors.New("")
)

func (s *Server) usageString() []byte {
	return []byte("usage: curl -F base=@before.json -F target=@after.json " + s.PublicURL + "\n")
}

func isBrowser(r *http.Request) bool {
	return reBrowser.MatchString(r.UserAgent())
}

const requestIDHeader = "X-Request-ID"

// requestID stamps every response with a fresh request trace id, unless
// the caller already supplied one, so logs across a request's lifetime
// (including any downstream storage errors logged by s.e) can be
// correlated.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if !isBrowser(r) {
		w.Header().Set(ctHeader, ctPlain)
		w.Write(s.usageString())
		return
	}
	templates.Templates.ExecuteTemplate(w, "index.tmpl", &templates.IndexTemplateData{PublicURL: s.PublicURL})
}

// e adapts an error-returning handler into an http.HandlerFunc, turning
// errUsage into a 400 usage message and anything else into a logged 500.
func (s *Server) e(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		if errors.Is(err, errUsage) {
			w.WriteHeader(400)
			w.Write(s.usageString())
			return
		}
		if errors.Is(err, blobstore.ErrNotFound) {
			w.WriteHeader(404)
			w.Write([]byte("not found"))
			return
		}
		s.logger().WithError(err).
			WithField("path", r.URL.Path).
			WithField("request_id", w.Header().Get(requestIDHeader)).
			Warn("request error")
		w.WriteHeader(500)
		w.Write([]byte("500 internal server error\n"))
	}
}

// differForRequest builds the internal/diff.Differ for a request, applying the
// ?rationalize=1 query flag documented in SPEC_FULL.md §8.
func differForRequest(r *http.Request) *diff.Differ {
	d := diff.New()
	if r.URL.Query().Get("rationalize") == "1" {
		d = d.WithRationalize()
	}
	return d
}

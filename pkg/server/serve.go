package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thehowl/semdiff/internal/apply"
	"github.com/thehowl/semdiff/internal/intersect"
	patchpkg "github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/pkg/blobstore"
	"github.com/thehowl/semdiff/pkg/store"
	"github.com/thehowl/semdiff/templates"
)

// uploadBundle is an upload's metadata plus its decoded bundle members,
// fetched together since every handler below needs both.
type uploadBundle struct {
	meta  store.Upload
	files map[string]bundleFile
}

func (s *Server) fetchUpload(r *http.Request, id string) (uploadBundle, error) {
	meta, err := s.DB.GetUpload(id)
	if err != nil {
		return uploadBundle{}, err
	}
	if meta.IsZero() {
		return uploadBundle{}, blobstore.ErrNotFound
	}
	data, err := s.Storage.Get(r.Context(), id)
	if err != nil {
		return uploadBundle{}, err
	}
	files, err := readBundle(data)
	if err != nil {
		return uploadBundle{}, err
	}
	return uploadBundle{meta: meta, files: files}, nil
}

// patchFor returns the patch between an upload's base and target,
// preferring the cached blob computed at upload time and falling back to
// recomputing it (honoring the request's ?rationalize=1 flag, which the
// cached copy may not reflect).
func (s *Server) patchFor(r *http.Request, id string, ub uploadBundle) (patchpkg.Patch, error) {
	if ub.meta.PatchID != "" && r.URL.Query().Get("rationalize") == "" {
		wire, err := s.Storage.Get(r.Context(), ub.meta.PatchID)
		if err == nil {
			return patchpkg.Unmarshal(wire)
		}
	}

	if ub.meta.BaseCodec != ub.meta.TargetCodec {
		return nil, fmt.Errorf("server: base codec %q and target codec %q differ, cannot diff", ub.meta.BaseCodec, ub.meta.TargetCodec)
	}
	_, decode, err := codecFor(ub.meta.BaseCodec, "")
	if err != nil {
		return nil, err
	}
	baseVal, err := decode(ub.files[bundleBase].Data)
	if err != nil {
		return nil, err
	}
	tgtVal, err := decode(ub.files[bundleTgt].Data)
	if err != nil {
		return nil, err
	}
	return differForRequest(r).Diff(baseVal, tgtVal), nil
}

func (s *Server) serveDiff(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	ub, err := s.fetchUpload(r, id)
	if err != nil {
		return err
	}

	p, err := s.patchFor(r, id, ub)
	if err != nil {
		return err
	}

	if !isBrowser(r) {
		w.Header().Set(ctHeader, ctJSON)
		wire, err := patchpkg.Marshal(p)
		if err != nil {
			return err
		}
		w.Write(wire)
		return nil
	}

	return templates.Templates.ExecuteTemplate(w, "file.tmpl", &templates.PatchTemplateData{
		ID:    id,
		Patch: p,
		Query: r.URL.Query(),
	})
}

// serveDocument returns a handler that serves the raw base (n == 0) or
// target (n == 1) document of an upload.
func (s *Server) serveDocument(n int) http.HandlerFunc {
	name := bundleBase
	if n == 1 {
		name = bundleTgt
	}
	return s.e(func(w http.ResponseWriter, r *http.Request) error {
		id := chi.URLParam(r, "id")
		ub, err := s.fetchUpload(r, id)
		if err != nil {
			return err
		}
		w.Header().Set(ctHeader, ctPlain)
		w.Write(ub.files[name].Data)
		return nil
	})
}

// serveApply replays an upload's patch against its base document and
// returns the re-encoded result, exercising internal/apply end to end.
func (s *Server) serveApply(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	ub, err := s.fetchUpload(r, id)
	if err != nil {
		return err
	}

	p, err := s.patchFor(r, id, ub)
	if err != nil {
		return err
	}

	_, decode, err := codecFor(ub.meta.BaseCodec, "")
	if err != nil {
		return err
	}
	baseVal, err := decode(ub.files[bundleBase].Data)
	if err != nil {
		return err
	}

	result, err := apply.Apply(baseVal, p, apply.FailFast)
	if err != nil {
		w.WriteHeader(422)
		w.Write([]byte("apply error: " + err.Error() + "\n"))
		return nil
	}

	enc, err := encoderFor(ub.meta.BaseCodec)
	if err != nil {
		return err
	}
	data, err := enc(result)
	if err != nil {
		return err
	}
	w.Header().Set(ctHeader, ctPlain)
	w.Write(data)
	return nil
}

// serveIntersect compares the patches of two previously uploaded ids
// (?a=&b=) and reports whether they touch overlapping regions of the
// document, exercising internal/intersect end to end.
func (s *Server) serveIntersect(w http.ResponseWriter, r *http.Request) error {
	qry := r.URL.Query()
	idA, idB := qry.Get("a"), qry.Get("b")
	if idA == "" || idB == "" {
		w.WriteHeader(400)
		w.Write([]byte("usage: /intersect?a=<id>&b=<id>\n"))
		return nil
	}

	ubA, err := s.fetchUpload(r, idA)
	if err != nil {
		return err
	}
	ubB, err := s.fetchUpload(r, idB)
	if err != nil {
		return err
	}

	pa, err := s.patchFor(r, idA, ubA)
	if err != nil {
		return err
	}
	pb, err := s.patchFor(r, idB, ubB)
	if err != nil {
		return err
	}

	w.Header().Set(ctHeader, ctJSON)
	return json.NewEncoder(w).Encode(struct {
		A          string `json:"a"`
		B          string `json:"b"`
		Intersects bool   `json:"intersects"`
	}{idA, idB, intersect.Intersect(pa, pb)})
}

package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/thehowl/cford32"
	"go.uber.org/multierr"

	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/pkg/store"
)

const (
	maxBodySize        = 1 << 20 // 1M
	maxMultipartMemory = maxBodySize
)

// upload accepts a base/target document pair, computes their semantic
// patch, and stores the bundle content-addressably. Grounded on the
// teacher's upload (main.go / pkg/http/upload.go), generalized from a
// raw-text tar bundle to codec-decoded documents plus a computed patch.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		w.WriteHeader(400)
		w.Write([]byte("error: " + err.Error() + "\n"))
		w.Write(s.usageString())
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	baseS, tgtS := r.MultipartForm.File["base"], r.MultipartForm.File["target"]
	if len(baseS) != 1 || len(tgtS) != 1 {
		w.WriteHeader(400)
		w.Write(s.usageString())
		return nil
	}
	baseFH, tgtFH := baseS[0], tgtS[0]

	baseData, err := readFormFile(baseFH)
	if err != nil {
		return err
	}
	tgtData, err := readFormFile(tgtFH)
	if err != nil {
		return err
	}

	codecName := r.FormValue("codec")
	baseCodec, baseDecode, err := codecFor(codecName, baseFH.Filename)
	if err != nil {
		w.WriteHeader(400)
		w.Write([]byte("error: " + err.Error() + "\n"))
		return nil
	}
	tgtCodec, tgtDecode, err := codecFor(codecName, tgtFH.Filename)
	if err != nil {
		w.WriteHeader(400)
		w.Write([]byte("error: " + err.Error() + "\n"))
		return nil
	}

	bundleBytes, err := buildBundle(
		bundleFile{Name: bundleBase, Data: baseData},
		bundleFile{Name: bundleTgt, Data: tgtData},
	)
	if err != nil {
		return err
	}

	shaHash := sha256.Sum256(bundleBytes)
	id := cford32.EncodeToStringLower(shaHash[:5])
	link := s.PublicURL + "/" + id
	output := func() {
		w.Header().Set(ctHeader, ctPlain)
		w.Write([]byte(link + "\n"))
	}

	has, err := s.DB.HasUpload(id)
	if err != nil {
		return err
	}
	if has {
		output()
		return nil
	}

	if s.Limits != (store.UploadLimits{}) {
		remote := r.RemoteAddr
		year, week := time.Now().UTC().ISOWeek()
		period := fmt.Sprintf("%d-W%02d", year, week)
		err := s.DB.AddAmountsAndCompare(remote, store.UsageStat{
			Period:   period,
			NumBytes: uint64(len(bundleBytes)),
			NumCalls: 1,
		}, s.Limits)
		if err != nil {
			if err == store.ErrLimitsExceeded {
				w.WriteHeader(429)
				w.Write([]byte("error: weekly upload limit exceeded\n"))
				return nil
			}
			return err
		}
	}

	if err := s.Storage.Put(r.Context(), id, bundleBytes); err != nil {
		return err
	}

	up := store.Upload{
		CreatedAt:   time.Now(),
		Sum:         hex.EncodeToString(shaHash[:]),
		BaseCodec:   baseCodec,
		TargetCodec: tgtCodec,
	}

	// Compute and cache the patch eagerly; decoding failures here are not
	// fatal to the upload itself, only to the convenience of a pre-computed
	// patch (serveDiff recomputes on demand if PatchID is empty).
	if baseCodec == tgtCodec {
		baseVal, errB := baseDecode(baseData)
		tgtVal, errT := tgtDecode(tgtData)
		if errB == nil && errT == nil {
			p := differForRequest(r).Diff(baseVal, tgtVal)
			wire, err := patch.Marshal(p)
			if err == nil {
				patchID := id + ":patch"
				if err := s.Storage.Put(r.Context(), patchID, wire); err == nil {
					up.PatchID = patchID
				}
			}
		}
	}

	if err := s.DB.PutUpload(id, up); err != nil {
		return multierr.Combine(err, s.Storage.Del(context.Background(), id))
	}

	output()
	return nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

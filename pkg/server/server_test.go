package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/thehowl/semdiff/pkg/blobstore"
	"github.com/thehowl/semdiff/pkg/store"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o644, nil)
	require.NoError(t, err)
	t.Cleanup(func() { bdb.Close() })

	return &Server{
		DB:        &store.DB{DB: bdb},
		PublicURL: "https://semdiff.test",
		Storage:   blobstore.NewDBStorage(bdb, "storage"),
		Output:    io.Discard,
	}
}

func multipartFiles(fields ...string) (*bytes.Buffer, string) {
	if len(fields)%2 != 0 {
		panic("multipartFiles expects an even number of arguments")
	}
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for i := 0; i < len(fields); i += 2 {
		fieldName, cont := fields[i], fields[i+1]
		pos := strings.IndexByte(fieldName, '@')
		if pos >= 0 {
			fieldName, fileName := fieldName[:pos], fieldName[pos+1:]
			fw, err := w.CreateFormFile(fieldName, fileName)
			if err != nil {
				panic(err)
			}
			if _, err := fw.Write([]byte(cont)); err != nil {
				panic(err)
			}
		} else {
			w.WriteField(fieldName, cont)
		}
	}
	w.Close()
	return buf, w.FormDataContentType()
}

func TestIndex(t *testing.T) {
	r := newServer(t).Router()

	wri, req := httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(wri, req)
	assert.Equal(t, 200, wri.Code)
	assert.Contains(t, wri.Body.String(), "usage: curl -F")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/136.0")
	r.ServeHTTP(wri, req)
	assert.Equal(t, 200, wri.Code)
	assert.Contains(t, wri.Body.String(), "<h1>semdiff</h1>")
}

func TestUploadAndServeDiff(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles(
		"base@base.json", `{"name":"widget","count":1}`,
		"target@target.json", `{"name":"widget","count":2}`,
	)
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	require.Equal(t, 200, wri.Code, wri.Body.String())

	loc := strings.TrimSpace(wri.Body.String())
	require.True(t, strings.HasPrefix(loc, "https://semdiff.test/"))
	id := strings.TrimPrefix(loc, "https://semdiff.test/")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", "/"+id, nil)
	req.Header.Set("User-Agent", "curl/8.0")
	r.ServeHTTP(wri, req)
	require.Equal(t, 200, wri.Code, wri.Body.String())

	var hunks []map[string]any
	require.NoError(t, json.Unmarshal(wri.Body.Bytes(), &hunks))
	assert.Len(t, hunks, 1)
}

func TestUploadDeduplicates(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles(
		"base@base.json", `{"a":1}`,
		"target@target.json", `{"a":2}`,
	)
	body := rd.Bytes()

	wri1, req1 := httptest.NewRecorder(), httptest.NewRequest("POST", "/", bytes.NewReader(body))
	req1.Header.Set("Content-Type", header)
	r.ServeHTTP(wri1, req1)
	require.Equal(t, 200, wri1.Code)

	wri2, req2 := httptest.NewRecorder(), httptest.NewRequest("POST", "/", bytes.NewReader(body))
	req2.Header.Set("Content-Type", header)
	r.ServeHTTP(wri2, req2)
	require.Equal(t, 200, wri2.Code)

	assert.Equal(t, wri1.Body.String(), wri2.Body.String())
}

func TestUploadRejectsMismatchedFields(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles("base@base.json", `{"a":1}`)
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	assert.Equal(t, http.StatusBadRequest, wri.Code)
	assert.Contains(t, wri.Body.String(), "usage: curl -F")
}

func TestServeApplyReproducesTarget(t *testing.T) {
	r := newServer(t).Router()

	rd, header := multipartFiles(
		"base@base.json", `{"name":"widget","count":1}`,
		"target@target.json", `{"name":"widget","count":2}`,
	)
	wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
	req.Header.Set("Content-Type", header)
	r.ServeHTTP(wri, req)
	require.Equal(t, 200, wri.Code)
	id := strings.TrimPrefix(strings.TrimSpace(wri.Body.String()), "https://semdiff.test/")

	wri, req = httptest.NewRecorder(), httptest.NewRequest("GET", "/"+id+"/apply", nil)
	r.ServeHTTP(wri, req)
	require.Equal(t, 200, wri.Code, wri.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(wri.Body.Bytes(), &got))
	assert.Equal(t, float64(2), got["count"])
}

func TestServeIntersect(t *testing.T) {
	r := newServer(t).Router()

	upload := func(base, target string) string {
		rd, header := multipartFiles("base@b.json", base, "target@t.json", target)
		wri, req := httptest.NewRecorder(), httptest.NewRequest("POST", "/", rd)
		req.Header.Set("Content-Type", header)
		r.ServeHTTP(wri, req)
		require.Equal(t, 200, wri.Code)
		return strings.TrimPrefix(strings.TrimSpace(wri.Body.String()), "https://semdiff.test/")
	}

	idA := upload(`{"a":1,"b":1}`, `{"a":2,"b":1}`)
	idB := upload(`{"a":1,"b":1}`, `{"a":1,"b":2}`)

	wri, req := httptest.NewRecorder(), httptest.NewRequest("GET", "/intersect?a="+idA+"&b="+idB, nil)
	r.ServeHTTP(wri, req)
	require.Equal(t, 200, wri.Code, wri.Body.String())

	var got struct{ Intersects bool }
	require.NoError(t, json.Unmarshal(wri.Body.Bytes(), &got))
	assert.False(t, got.Intersects)
}

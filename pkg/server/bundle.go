package server

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// bundleFile is one named member of an upload's tar.gz bundle: the base
// document or the target document. upload stores the serialized patch as
// its own blob, not as a bundle member.
type bundleFile struct {
	Name string
	Data []byte
}

const (
	bundleBase  = "base"
	bundleTgt   = "target"
	bundlePatch = "patch"
)

// buildBundle gzip+tars files into a single blob, grounded on the
// teacher's tarWriteMultipart/tgzReadFiles pair in main.go.
func buildBundle(files ...bundleFile) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, f := range files {
		err := tw.WriteHeader(&tar.Header{
			Name: f.Name,
			Size: int64(len(f.Data)),
			Mode: 0o600,
		})
		if err != nil {
			return nil, err
		}
		if _, err := tw.Write(f.Data); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readBundle reverses buildBundle.
func readBundle(data []byte) (map[string]bundleFile, error) {
	gzrd, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	files := make(map[string]bundleFile)
	rd := tar.NewReader(gzrd)
	for {
		hdr, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		body, err := io.ReadAll(rd)
		if err != nil {
			return nil, err
		}
		files[hdr.Name] = bundleFile{Name: hdr.Name, Data: body}
	}

	if err := gzrd.Close(); err != nil {
		return nil, err
	}
	if _, ok := files[bundleBase]; !ok {
		return nil, fmt.Errorf("server: bundle missing %q member", bundleBase)
	}
	if _, ok := files[bundleTgt]; !ok {
		return nil, fmt.Errorf("server: bundle missing %q member", bundleTgt)
	}
	return files, nil
}

package server

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thehowl/semdiff/internal/value"
	jsoncodec "github.com/thehowl/semdiff/pkg/codec/json"
	tomlcodec "github.com/thehowl/semdiff/pkg/codec/toml"
	xmlcodec "github.com/thehowl/semdiff/pkg/codec/xml"
	yamlcodec "github.com/thehowl/semdiff/pkg/codec/yaml"
)

type decodeFunc func([]byte) (value.Value, error)
type encodeFunc func(value.Value) ([]byte, error)

var codecsByName = map[string]decodeFunc{
	"json": jsoncodec.Decode,
	"yaml": yamlcodec.Decode,
	"yml":  yamlcodec.Decode,
	"toml": tomlcodec.Decode,
	"xml":  xmlcodec.Decode,
}

var encodersByName = map[string]encodeFunc{
	"json": jsoncodec.Encode,
	"yaml": yamlcodec.Encode,
	"yml":  yamlcodec.Encode,
	"toml": tomlcodec.Encode,
	"xml":  xmlcodec.Encode,
}

// encoderFor resolves an encoder for a codec name, as stored in
// store.Upload.BaseCodec/TargetCodec.
func encoderFor(name string) (encodeFunc, error) {
	fn, ok := encodersByName[name]
	if !ok {
		return nil, fmt.Errorf("server: unsupported document format %q", name)
	}
	return fn, nil
}

// codecFor resolves a decoder for fileName, preferring an explicit name
// (the "codec" form field) and falling back to the file's extension.
func codecFor(name, fileName string) (string, decodeFunc, error) {
	if name == "" {
		ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
		name = strings.ToLower(ext)
	}
	fn, ok := codecsByName[name]
	if !ok {
		return "", nil, fmt.Errorf("server: unsupported or missing document format %q", name)
	}
	return name, fn, nil
}

package querydoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cropq/internal/queryir"
)

// Format is the surface syntax of a query document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the document format from a file extension.
// Unknown extensions are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatJSON
	}
}

// ParseFile reads and parses a query document.
//
// I/O failures are returned as plain wrapped errors; everything after the
// bytes are in memory is reported as *ParseError.
func ParseFile(path string) (queryir.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return queryir.Document{}, fmt.Errorf("read query file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse decodes data in the given format and parses the resulting tree.
//
// All formats share one tree parser, so a document means the same thing
// whether it is written as JSON, YAML or CUE.
func Parse(data []byte, format Format) (queryir.Document, error) {
	tree, err := decode(data, format)
	if err != nil {
		return queryir.Document{}, err
	}
	return ParseTree(tree)
}

func decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON, "":
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatCUE:
		return decodeCUE(data)
	default:
		return nil, newParseError(ErrCodeMalformedDocument, "", "unsupported document format %q", format)
	}
}

// decodeJSON keeps numbers as json.Number so integer fields can be checked
// exactly instead of round-tripping through float64.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, &ParseError{Code: ErrCodeMalformedDocument, Message: "invalid JSON", Err: err}
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, newParseError(ErrCodeMalformedDocument, "", "unexpected data after JSON document")
	}
	return tree, nil
}

func decodeYAML(data []byte) (any, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, &ParseError{Code: ErrCodeMalformedDocument, Message: "invalid YAML", Err: err}
	}
	return tree, nil
}

// decodeCUE evaluates the document and exports it as JSON. CUE documents may
// use references, comments and computed values; only the concrete result is
// parsed.
func decodeCUE(data []byte) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename("query.cue"))
	if err := value.Err(); err != nil {
		return nil, &ParseError{Code: ErrCodeMalformedDocument, Message: "invalid CUE", Err: err}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &ParseError{Code: ErrCodeMalformedDocument, Message: "CUE document is not concrete", Err: err}
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, &ParseError{Code: ErrCodeMalformedDocument, Message: "export CUE document", Err: err}
	}
	return decodeJSON(exported)
}

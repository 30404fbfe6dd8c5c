package coverage

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Format selects the report schema.
type Format string

const (
	// Coveralls is a flat list of source files with nullable per-line hits.
	Coveralls Format = "coveralls"
	// Covdir is a directory tree whose leaves carry per-line hits.
	Covdir Format = "covdir"
)

func (f Format) String() string { return string(f) }

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(Coveralls), string(Covdir)}
}

// ParseFormat converts a name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case Coveralls:
		return Coveralls, nil
	case Covdir:
		return Covdir, nil
	default:
		return "", fmt.Errorf("unknown coverage format %q (valid: %s)", s, strings.Join(Formats(), ", "))
	}
}

//go:embed schema/*.json
var schemaFS embed.FS

const schemaBase = "https://github.com/panbanda/wcc/schema/"

var (
	schemasOnce sync.Once
	schemas     map[Format]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[Format]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		out := make(map[Format]*jsonschema.Schema, 2)
		for _, f := range []Format{Coveralls, Covdir} {
			raw, err := schemaFS.ReadFile("schema/" + string(f) + ".json")
			if err != nil {
				schemasErr = err
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", f, err)
				return
			}
			url := schemaBase + string(f) + ".json"
			if err := c.AddResource(url, doc); err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", f, err)
				return
			}
			sch, err := c.Compile(url)
			if err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", f, err)
				return
			}
			out[f] = sch
		}
		schemas = out
	})
	return schemas, schemasErr
}

// ParseFile reads and parses the report at path.
func ParseFile(path string, format Format) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Parse(data, format)
}

// Parse validates data against the schema for format and builds a Report.
func Parse(data []byte, format Format) (*Report, error) {
	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	sch, ok := compiled[format]
	if !ok {
		return nil, &SchemaError{Format: format, Err: fmt.Errorf("unsupported format")}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &SchemaError{Format: format, Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return nil, &SchemaError{Format: format, Err: err}
	}

	r := &Report{
		Format: format,
		files:  make(map[string]*File),
		digest: xxhash.Sum64(data),
	}

	switch format {
	case Coveralls:
		err = r.decodeCoveralls(data)
	case Covdir:
		err = r.decodeCovdir(data)
	}
	if err != nil {
		return nil, &SchemaError{Format: format, Err: err}
	}
	return r, nil
}

func (r *Report) add(p string, hits []int64) {
	key := Normalize(p)
	if existing, ok := r.files[key]; ok {
		existing.merge(hits)
		return
	}
	r.files[key] = newFile(key, hits)
}

type coverallsReport struct {
	SourceFiles []struct {
		Name     string   `json:"name"`
		Coverage []*int64 `json:"coverage"`
	} `json:"source_files"`
}

func (r *Report) decodeCoveralls(data []byte) error {
	var doc coverallsReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, sf := range doc.SourceFiles {
		hits := make([]int64, len(sf.Coverage))
		for i, h := range sf.Coverage {
			if h == nil {
				hits[i] = NotCoverable
				continue
			}
			hits[i] = *h
		}
		r.add(sf.Name, hits)
	}
	return nil
}

type covdirNode struct {
	Children map[string]*covdirNode `json:"children"`
	Coverage []int64                `json:"coverage"`
}

func (r *Report) decodeCovdir(data []byte) error {
	var root covdirNode
	if err := json.Unmarshal(data, &root); err != nil {
		return err
	}
	r.flatten("", &root)
	return nil
}

// flatten records every leaf under n. Directory nodes only contribute their
// key to the path.
func (r *Report) flatten(prefix string, n *covdirNode) {
	if n == nil {
		return
	}
	if n.Coverage != nil && len(n.Children) == 0 && prefix != "" {
		hits := make([]int64, len(n.Coverage))
		for i, h := range n.Coverage {
			if h < 0 {
				h = NotCoverable
			}
			hits[i] = h
		}
		r.add(prefix, hits)
		return
	}

	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		child := k
		if prefix != "" {
			child = prefix + "/" + k
		}
		r.flatten(child, n.Children[k])
	}
}

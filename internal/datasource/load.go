package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/metrics"
)

// Load reads the outline at path, picking the reader from its extension.
func Load(path string) (Outline, error) {
	source, err := Stat(path)
	if err != nil {
		return Outline{}, err
	}
	return LoadFromSource(source)
}

// LoadFromSource reads an outline, dispatching to the reader for its type.
func LoadFromSource(source DataSource) (Outline, error) {
	defer metrics.Timer(metrics.OutlineLoad)()

	var (
		o   Outline
		err error
	)
	switch source.Type {
	case SourceTypeSQLite:
		reader, rerr := NewSQLiteReader(source)
		if rerr != nil {
			return Outline{}, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, rerr)
		}
		defer reader.Close()
		o, err = reader.LoadOutline()

	case SourceTypeYAML, SourceTypeJSON:
		f, ferr := os.Open(source.Path)
		if ferr != nil {
			return Outline{}, ferr
		}
		defer f.Close()
		if source.Type == SourceTypeYAML {
			o, err = DecodeYAML(f)
		} else {
			o, err = DecodeJSON(f)
		}

	default:
		return Outline{}, fmt.Errorf("%s: %w", source.Type, ErrUnknownFormat)
	}
	if err != nil {
		return Outline{}, fmt.Errorf("failed to read %s: %w", source.Path, err)
	}
	o.Path = source.Path
	debug.Log("loaded %s: %d nodes", source.Path, Count(o.Nodes))
	return o, nil
}

// DecodeYAML reads a YAML outline. An empty document is an empty outline.
func DecodeYAML(r io.Reader) (Outline, error) {
	var o Outline
	if err := yaml.NewDecoder(r).Decode(&o); err != nil && err != io.EOF {
		return Outline{}, err
	}
	return o, nil
}

// DecodeJSON reads a JSON outline.
func DecodeJSON(r io.Reader) (Outline, error) {
	var o Outline
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return Outline{}, err
	}
	return o, nil
}

// Save writes o to path in the format its extension names. YAML and JSON
// are written to a temp file and renamed into place.
func Save(path string, o Outline) error {
	typ, err := DetectType(path)
	if err != nil {
		return err
	}
	if typ == SourceTypeSQLite {
		return WriteSQLite(path, o)
	}

	var buf bytes.Buffer
	if typ == SourceTypeYAML {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("encoding outline: %w", err)
		}
		enc.Close()
	} else {
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding outline: %w", err)
		}
		buf.Write(append(data, '\n'))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".arbor-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadResult is the outcome of loading one file in LoadAll.
type LoadResult struct {
	Path    string
	Outline Outline
	Error   error
}

// LoadAll reads every path concurrently. Results keep the order of paths;
// per-file errors are reported in the results, not returned.
func LoadAll(ctx context.Context, paths []string) ([]LoadResult, error) {
	results := make([]LoadResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = LoadResult{Path: path, Error: ctx.Err()}
				return nil
			default:
			}
			o, err := Load(path)
			results[i] = LoadResult{Path: path, Outline: o, Error: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Merge combines several outlines into one. A single outline is returned
// as is; otherwise each becomes one root labelled with its title, or its
// file name when untitled.
func Merge(outlines []Outline) Outline {
	if len(outlines) == 1 {
		return outlines[0]
	}
	var merged Outline
	for _, o := range outlines {
		label := o.Title
		if label == "" {
			label = filepath.Base(o.Path)
		}
		merged.Nodes = append(merged.Nodes, Node{Label: label, Expanded: true, Children: o.Nodes})
	}
	return merged
}

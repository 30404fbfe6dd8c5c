package output

import (
	"context"
	"fmt"

	"github.com/panbanda/wcc/internal/fileproc"
)

// Target is an output file and the format written to it.
type Target struct {
	Format Format
	Path   string
}

// WriteTargets renders r into every target concurrently. Each file is
// written independently; failures are collected per path.
func WriteTargets(ctx context.Context, r Renderable, targets []Target, workers int) error {
	if len(targets) == 0 {
		return nil
	}

	byPath := make(map[string]Format, len(targets))
	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, dup := byPath[t.Path]; dup {
			return fmt.Errorf("output %s requested more than once", t.Path)
		}
		byPath[t.Path] = t.Format
		paths = append(paths, t.Path)
	}

	errs := fileproc.ForEachFile(ctx, paths, workers, func(_ context.Context, path string) error {
		f, err := NewFormatter(byPath[path], path, false)
		if err != nil {
			return err
		}
		if err := f.Output(r); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if errs != nil {
		return errs
	}
	return nil
}

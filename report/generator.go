package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/warp/maintenance-plan/maintenance"
)

// RecordLister is the slice of the store the generator needs.
type RecordLister interface {
	ListAll(ctx context.Context) ([]maintenance.Record, error)
}

// Request describes one report run.
type Request struct {
	TemplatePath string
	OutputPath   string
	Params
}

// Generator reads the plan from a store and writes the rendered report.
type Generator struct {
	Store RecordLister
}

func NewGenerator(store RecordLister) *Generator {
	return &Generator{Store: store}
}

// Generate renders the report for req. The output file is only replaced
// once rendering has succeeded; on any error it is left untouched.
func (g *Generator) Generate(ctx context.Context, req Request) error {
	if g.Store == nil {
		return maintenance.ErrNoStoreSelected
	}
	if req.OutputPath == "" {
		return &maintenance.InputError{Field: "output", Message: "output path is required"}
	}

	records, err := g.Store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return maintenance.ErrNoRecords
	}

	tmpl, err := os.ReadFile(req.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &maintenance.TemplateError{Path: req.TemplatePath, Err: fmt.Errorf("template not found: %w", err)}
		}
		return &maintenance.TemplateError{Path: req.TemplatePath, Err: err}
	}

	out, err := Render(string(tmpl), Tables(records), req.Params)
	if err != nil {
		var te *maintenance.TemplateError
		if errors.As(err, &te) && te.Path == "" {
			te.Path = req.TemplatePath
		}
		return err
	}

	if err := writeAtomic(req.OutputPath, []byte(out)); err != nil {
		return err
	}
	log.Printf("[Report] Wrote %d records to %s", len(records), req.OutputPath)
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

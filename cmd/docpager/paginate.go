package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/res"
	"github.com/gompdf/docpager/pkg/api"
)

const (
	formatJSON = "json"
	formatHTML = "html"
)

// source is the input document
type source struct {
	markup string
	// base resolves relative references of the document
	base string
	name string
}

func readSource(ctx context.Context, ref string) (*source, error) {
	switch {
	case ref == "" || ref == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read STDIN: %w", err)
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve working directory: %w", err)
		}
		return &source{markup: string(data), base: wd + string(filepath.Separator), name: "stdin"}, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		r, err := res.NewLoader("").LoadContext(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("unable to load '%s': %w", ref, err)
		}
		name := strings.TrimSuffix(ref, "/")
		return &source{markup: string(r.Data), base: ref, name: name[strings.LastIndexAny(name, "/")+1:]}, nil
	default:
		abs, err := filepath.Abs(ref)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve '%s': %w", ref, err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("unable to read '%s': %w", ref, err)
		}
		return &source{markup: string(data), base: abs, name: strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))}, nil
	}
}

// newPaginator builds a paginator from the active configuration
func newPaginator(env *localEnv, src *source, extra ...api.Option) (*api.Paginator, error) {
	cfg := env.Cfg
	g, err := cfg.Page.Geometry()
	if err != nil {
		return nil, fmt.Errorf("bad page configuration: %w", err)
	}
	header, err := cfg.Header.HeaderFooter()
	if err != nil {
		return nil, fmt.Errorf("bad header configuration: %w", err)
	}
	footer, err := cfg.Footer.HeaderFooter()
	if err != nil {
		return nil, fmt.Errorf("bad footer configuration: %w", err)
	}

	base := cfg.Resources.BaseURL
	if base == "" {
		base = src.base
	}
	opts := []api.Option{
		api.WithGeometry(g),
		api.WithSettings(cfg.Layout.Settings()),
		api.WithBaseURL(base),
		api.WithWorkers(cfg.Resources.Workers),
		api.WithLogger(env.Log),
		func(o *api.Options) {
			o.Header, o.Footer = header, footer
			o.Fonts = cfg.FontSources()
			o.ResourcePaths = append(o.ResourcePaths, cfg.Resources.SearchPaths...)
		},
	}
	return api.New(append(opts, extra...)...), nil
}

// createDestination opens name for writing, STDOUT when name is empty
func createDestination(name string, overwrite bool) (io.WriteCloser, error) {
	if name == "" {
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(name, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("destination '%s' already exists, use --overwrite", name)
		}
		return nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	return f, nil
}

// writeOutput renders into memory first so that a failed run leaves no
// destination file behind. A destination that cannot be written completely
// is removed.
func writeOutput(name string, overwrite bool, render func(io.Writer) error) error {
	if name != "" && !overwrite {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("destination '%s' already exists, use --overwrite", name)
		}
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	out, err := createDestination(name, overwrite)
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if name != "" {
			_ = os.Remove(name)
		}
		return fmt.Errorf("unable to write destination: %w", err)
	}
	return nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func runPaginate(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	format := strings.ToLower(cmd.String("format"))
	if format != formatJSON && format != formatHTML {
		return fmt.Errorf("unknown output format '%s'", cmd.String("format"))
	}

	src, err := readSource(ctx, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	p, err := newPaginator(env, src, api.WithTitle(src.name))
	if err != nil {
		return err
	}

	return writeOutput(cmd.Args().Get(1), true, func(w io.Writer) error {
		if format == formatHTML {
			return p.RenderHTML(ctx, src.markup, w)
		}
		result, err := p.Paginate(ctx, src.markup)
		if err != nil {
			return err
		}
		if result.Status == api.StatusDegraded {
			env.Log.Warn("Document was not measured, all content is on one page", zap.String("run", result.RunID))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Summary()); err != nil {
			return fmt.Errorf("unable to write summary: %w", err)
		}
		return nil
	})
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	src, err := readSource(ctx, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	title := cmd.String("title")
	if title == "" {
		title = src.name
	}
	p, err := newPaginator(env, src, api.WithTitle(title))
	if err != nil {
		return err
	}

	dest := cmd.Args().Get(1)
	if dest == "" {
		dest = outputName(src.name)
	}
	if err := renderPDF(ctx, p, src.markup, dest, cmd.Bool("overwrite")); err != nil {
		return err
	}
	env.Log.Info("Document rendered", zap.String("file", dest))
	return nil
}

func renderPDF(ctx context.Context, p *api.Paginator, markup, dest string, overwrite bool) error {
	return writeOutput(dest, overwrite, func(w io.Writer) error {
		return p.RenderPDF(ctx, markup, w)
	})
}

// outputName derives a file system friendly PDF name from the source name
func outputName(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "document"
	}
	return base + ".pdf"
}

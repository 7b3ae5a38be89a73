package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"typeinfo/pkg/treeio"
	"typeinfo/pkg/typeinfo"
	"typeinfo/pkg/types"
	"typeinfo/pkg/watch"
)

var version = "0.0.1"

func main() {
	if err := newCommand(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	docFlags := []cli.Flag{
		&cli.StringFlag{Name: "hints", Aliases: []string{"H"}, Usage: "YAML file mapping parameter names to dotted type names"},
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "documents resolved in parallel", Sources: cli.EnvVars("TYPEINFO_JOBS")},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "trace scopes and annotations", Sources: cli.EnvVars("TYPEINFO_VERBOSE")},
	}
	return &cli.Command{
		Name:      "typeinfo",
		Usage:     "propagate type annotations over syntax-tree documents",
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Aliases:   []string{"r"},
				Usage:     "annotate documents and write them back",
				ArgsUsage: "[files...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(treeio.YAML), Usage: "output format (yaml or json)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory (default stdout)"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "resolve again whenever an input changes"},
				}, docFlags...),
				Action: resolveAction,
			},
			{
				Name:      "check",
				Aliases:   []string{"c"},
				Usage:     "report resolution failures",
				ArgsUsage: "[files...]",
				Flags:     docFlags,
				Action:    checkAction,
			},
			{
				Name:   "version",
				Usage:  "print typeinfo version",
				Action: versionAction,
			},
		},
	}
}

type runner struct {
	reg    *types.Registry
	hints  typeinfo.Hints
	format treeio.Format
	encode bool
	logger *log.Logger
}

type result struct {
	path string
	out  []byte
	err  error
}

func newRunner(cmd *cli.Command, encode bool) (*runner, error) {
	r := &runner{reg: types.NewRegistry(), encode: encode, format: treeio.YAML}
	if p := cmd.String("hints"); p != "" {
		h, err := treeio.ReadHintsFile(p, r.reg)
		if err != nil {
			return nil, err
		}
		r.hints = h
	}
	if encode {
		f, err := treeio.ParseFormat(cmd.String("format"))
		if err != nil {
			return nil, err
		}
		r.format = f
	}
	if cmd.Bool("verbose") {
		r.logger = log.New(cmd.Root().ErrWriter, "[typeinfo] ", log.LstdFlags)
	}
	return r, nil
}

// hintsFor merges the command-line hints over the document's own.
func (r *runner) hintsFor(doc *treeio.Document) typeinfo.Hints {
	h := typeinfo.Hints{}
	for k, v := range doc.Hints {
		h[k] = v
	}
	for k, v := range r.hints {
		h[k] = v
	}
	return h
}

func (r *runner) process(path string) result {
	res := result{path: path}
	doc, err := treeio.ReadFile(path, r.reg)
	if err != nil {
		res.err = err
		return res
	}
	var opts []typeinfo.Option
	if r.logger != nil {
		opts = append(opts, typeinfo.WithLogger(r.logger))
	}
	if _, err := typeinfo.Resolve(doc.Root, r.hintsFor(doc), opts...); err != nil {
		res.err = err
		return res
	}
	if r.encode {
		res.out, res.err = treeio.Encode(doc, r.format)
	}
	return res
}

// runAll resolves every path, at most jobs at a time. Results keep the order
// of paths.
func (r *runner) runAll(ctx context.Context, paths []string, jobs int) []result {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = result{path: p, err: err}
				return nil
			}
			results[i] = r.process(p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func formatFailure(path string, err error) string {
	var rerr *typeinfo.Error
	if errors.As(err, &rerr) && rerr.N != nil && rerr.N.Pos().IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", path, rerr.N.Pos().Line, rerr.N.Pos().Column, rerr.Message())
	}
	return fmt.Sprintf("%s: %v", path, err)
}

func outputPath(dir, path string, f treeio.Format) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+"."+string(f))
}

func (r *runner) emit(cmd *cli.Command, res result, first bool) error {
	stdout, stderr := cmd.Root().Writer, cmd.Root().ErrWriter
	if res.err != nil {
		_, _ = fmt.Fprintln(stderr, formatFailure(res.path, res.err))
		return res.err
	}
	if !r.encode {
		return nil
	}
	if dir := cmd.String("output"); dir != "" {
		dst := outputPath(dir, res.path, r.format)
		if err := os.WriteFile(dst, res.out, 0644); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return err
		}
		if r.logger != nil {
			r.logger.Printf("wrote %s", dst)
		}
		return nil
	}
	if !first && r.format == treeio.YAML {
		_, _ = fmt.Fprintln(stdout, "---")
	}
	_, err := stdout.Write(res.out)
	return err
}

func run(ctx context.Context, cmd *cli.Command, encode bool) error {
	if cmd.NArg() == 0 {
		return errors.New("you must specify at least one document")
	}
	r, err := newRunner(cmd, encode)
	if err != nil {
		return err
	}
	if dir := cmd.String("output"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	paths := cmd.Args().Slice()
	failed := 0
	for i, res := range r.runAll(ctx, paths, int(cmd.Int("jobs"))) {
		if err := r.emit(cmd, res, i == 0); err != nil {
			failed++
		}
	}
	if encode && cmd.Bool("watch") {
		return r.watch(ctx, cmd, paths)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

func (r *runner) watch(ctx context.Context, cmd *cli.Command, paths []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	w, err := watch.New(paths)
	if err != nil {
		return err
	}
	defer w.Close()
	_, _ = fmt.Fprintf(cmd.Root().ErrWriter, "watching %d document(s)\n", len(paths))
	err = w.Run(ctx, func(path string) {
		_ = r.emit(cmd, r.process(path), false)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func resolveAction(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, true)
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, false)
}

func versionAction(ctx context.Context, cmd *cli.Command) error {
	_, _ = fmt.Fprintf(cmd.Root().Writer, "typeinfo version %s (document format %s)\n", version, treeio.CurrentVersion)
	return nil
}

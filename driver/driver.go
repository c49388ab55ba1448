// Package driver discovers component-tree documents of an application,
// compiles the stale ones and writes the generated classes next to them.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/romshark/tojs/compiler"
	"github.com/romshark/tojs/config"
	"github.com/romshark/tojs/model"
	"github.com/romshark/tojs/modules/msgbroker"
	"github.com/romshark/tojs/parser"
	"github.com/romshark/tojs/resolve"
)

var (
	ErrSkipped   = errors.New("some files were skipped")
	ErrOutOfDate = errors.New("generated files are out of date")
)

// Options configures a Driver. All fields are optional.
type Options struct {
	// Logger defaults to a logger discarding everything.
	Logger *slog.Logger

	// Reporter defaults to a reporter writing to io.Discard.
	Reporter *Reporter

	// Broker receives an Event for every generated file.
	// No events are published when nil.
	Broker msgbroker.MessageBroker

	// Force regenerates files that are up to date.
	Force bool
}

// Driver builds a single application.
type Driver struct {
	appDir   string
	log      *slog.Logger
	reporter *Reporter
	broker   msgbroker.MessageBroker
	metrics  *brokerMetrics
	force    bool

	conf      config.Config
	src       config.Source
	sourceDir string
	resolver  *resolve.Resolver
	compiler  *compiler.Compiler
}

// New creates a driver for the application in appDir configured
// by conf, which was read from src.
func New(appDir string, conf config.Config, src config.Source, opts Options) (*Driver, error) {
	d := &Driver{
		appDir:   appDir,
		log:      opts.Logger,
		reporter: opts.Reporter,
		broker:   opts.Broker,
		force:    opts.Force,
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	if d.reporter == nil {
		d.reporter = NewReporter(io.Discard)
	}
	d.metrics = &brokerMetrics{log: d.log}
	if err := d.configure(conf, src); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) configure(conf config.Config, src config.Source) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r, err := conf.Resolver()
	if err != nil {
		return err
	}
	c, err := compiler.New(r, conf.CompilerOptions())
	if err != nil {
		return err
	}
	d.conf, d.src = conf, src
	d.sourceDir = filepath.Join(d.appDir, filepath.FromSlash(conf.SourceDir))
	d.resolver, d.compiler = r, c
	return nil
}

// SourceDir returns the directory sources are discovered in.
func (d *Driver) SourceDir() string { return d.sourceDir }

// Summary is the outcome of a Run.
type Summary struct {
	Generated int
	UpToDate  int
	Skipped   int

	// Bytes is the total size of all generated files.
	Bytes int
}

// Run compiles every stale source file. Files that fail to compile are
// reported and skipped, and Run then returns ErrSkipped after processing
// all others. A document that is not well-formed XML aborts the run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	build := newBuildID()
	var sum Summary

	files, err := Discover(d.sourceDir, d.conf.Include, d.conf.Exclude)
	if err != nil {
		return sum, err
	}
	d.reporter.Start(d.src.Path)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := d.file(ctx, build, rel, &sum); err != nil {
			return sum, err
		}
	}
	d.reporter.Summary(sum, time.Since(start))
	if sum.Skipped > 0 {
		return sum, fmt.Errorf("%w: %d of %d", ErrSkipped, sum.Skipped, len(files))
	}
	return sum, nil
}

func (d *Driver) file(ctx context.Context, build, rel string, sum *Summary) error {
	t, err := d.target(rel)
	var skip *skipError
	switch {
	case errors.As(err, &skip):
		d.skip(rel, skip.err, sum)
		return nil
	case err != nil:
		return err
	}

	if !d.force {
		stale, err := d.stale(t)
		if err != nil {
			return err
		}
		if !stale {
			d.log.Debug("up to date", slog.String("file", rel))
			sum.UpToDate++
			return nil
		}
	}

	res, err := d.compiler.Compile(t.tree, t.class)
	if err != nil {
		d.skip(rel, err, sum)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.output), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(t.output, []byte(res.Code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", t.output, err)
	}

	e := Event{
		Build:    build,
		Class:    t.class,
		Kind:     KindClass,
		Source:   t.source,
		Output:   t.output,
		Size:     len(res.Code),
		Handlers: res.Handlers,
		Time:     time.Now(),
	}
	if t.mixin {
		e.Kind = KindMixin
	}
	sum.Generated++
	sum.Bytes += e.Size
	d.log.Debug("generated",
		slog.String("file", rel), slog.String("class", t.class))
	d.reporter.Generated(e)
	d.publish(ctx, e)
	return nil
}

func (d *Driver) skip(rel string, err error, sum *Summary) {
	sum.Skipped++
	d.log.Warn("skipping file", slog.String("file", rel), slog.Any("err", err))
	d.reporter.Skipped(rel, err)
}

// skipError marks a file that can't be compiled without aborting the run.
type skipError struct{ err error }

func (e *skipError) Error() string { return e.err.Error() }
func (e *skipError) Unwrap() error { return e.err }

// target is a parsed source document and where its output goes.
type target struct {
	rel    string
	source string
	output string
	class  string
	mixin  bool
	tree   *model.Tree
}

// target parses the source document at rel. Documents with attribute
// diagnostics or a structural root yield a *skipError.
func (d *Driver) target(rel string) (target, error) {
	source := filepath.Join(d.sourceDir, filepath.FromSlash(rel))
	tree, errs := parser.ParseFile(source)
	if tree == nil {
		return target{}, &errs
	}
	if errs.Len() > 0 {
		return target{}, &skipError{err: &errs}
	}
	if tree.Root.Kind.Structural() {
		return target{}, &skipError{err: fmt.Errorf(
			"%w: <%s>", compiler.ErrRootTag, tree.Root.Tag)}
	}

	t := target{
		rel:    rel,
		source: source,
		mixin:  tree.Root.Kind == model.KindMixinRoot,
		tree:   tree,
	}
	t.class = ClassName(rel, t.mixin)
	t.output = OutputPath(d.sourceDir, t.class)
	d.suggest(tree)
	return t, nil
}

// stale reports whether the output of t is missing or older than
// its source or the configuration.
func (d *Driver) stale(t target) (bool, error) {
	out, err := os.Stat(t.output)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	in, err := os.Stat(t.source)
	if err != nil {
		return false, err
	}
	mod := out.ModTime()
	return mod.Before(in.ModTime()) || mod.Before(d.src.ModTime), nil
}

// suggest warns about component tags that fall back to the default
// namespace while closely matching an alias.
func (d *Driver) suggest(tree *model.Tree) {
	for n := range tree.Root.Walk() {
		if n.Kind != model.KindComponent ||
			strings.Contains(n.Tag, ".") || d.resolver.Aliased(n.Tag) {
			continue
		}
		if s := d.resolver.Suggest(n.Tag); len(s) > 0 {
			d.log.Warn("tag is not aliased",
				slog.String("pos", n.Pos.String()),
				slog.String("tag", n.Tag),
				slog.String("resolved", d.resolver.Resolve(n.Tag)),
				slog.Any("did_you_mean", s))
		}
	}
}

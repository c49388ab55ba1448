package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// CheckSummary is the outcome of a Check.
type CheckSummary struct {
	Checked   int
	OutOfDate int
	Skipped   int
}

// Check compiles every source file in memory and compares the result
// with the file on disk without writing anything. Out of date outputs
// are reported with a line diff. Check returns ErrOutOfDate if any output
// differs or is missing and ErrSkipped if any file failed to compile.
func (d *Driver) Check(ctx context.Context) (CheckSummary, error) {
	start := time.Now()
	var sum CheckSummary

	files, err := Discover(d.sourceDir, d.conf.Include, d.conf.Exclude)
	if err != nil {
		return sum, err
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := d.check(rel, &sum); err != nil {
			return sum, err
		}
	}
	d.log.Debug("check finished",
		slog.Int("checked", sum.Checked),
		slog.Duration("took", time.Since(start)))

	var errs []error
	if sum.OutOfDate > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d",
			ErrOutOfDate, sum.OutOfDate, sum.Checked))
	}
	if sum.Skipped > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d",
			ErrSkipped, sum.Skipped, len(files)))
	}
	return sum, errors.Join(errs...)
}

func (d *Driver) check(rel string, sum *CheckSummary) error {
	t, err := d.target(rel)
	var skip *skipError
	switch {
	case errors.As(err, &skip):
		sum.Skipped++
		d.reporter.Skipped(rel, skip.err)
		return nil
	case err != nil:
		return err
	}
	res, err := d.compiler.Compile(t.tree, t.class)
	if err != nil {
		sum.Skipped++
		d.reporter.Skipped(rel, err)
		return nil
	}
	sum.Checked++

	onDisk, err := os.ReadFile(t.output)
	switch {
	case errors.Is(err, os.ErrNotExist):
		sum.OutOfDate++
		d.reporter.OutOfDate(t.output, "", res.Code)
		return nil
	case err != nil:
		return err
	}
	if string(onDisk) != res.Code {
		sum.OutOfDate++
		d.reporter.OutOfDate(t.output, string(onDisk), res.Code)
	}
	return nil
}

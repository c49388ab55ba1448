package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/romshark/tojs/config"
	"github.com/romshark/tojs/parser/validate"
)

var ErrConfigExists = errors.New("configuration already exists")

// stdinIsTerminal enables the interactive form.
var stdinIsTerminal = func() bool { return isatty.IsTerminal(os.Stdin.Fd()) }

func (c *cli) newInitCmd() *cobra.Command {
	var (
		namespace  string
		sourceDir  string
		lineEnding string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:   "init [app-dir]",
		Short: "Write a starter " + config.FileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(appDir(args), config.FileName)
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%w: %s", ErrConfigExists, path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			conf := config.Default(namespace)
			if sourceDir != "" {
				conf.SourceDir = sourceDir
			}
			if lineEnding != "" {
				conf.LineEnding = lineEnding
			}

			// A legacy configuration seeds the aliases.
			if old, src, err := config.Load(appDir(args)); err == nil && src.Legacy {
				conf.Aliases = old.Aliases
				if conf.DefaultNamespace == "" {
					conf.DefaultNamespace = old.DefaultNamespace
				}
			}

			if stdinIsTerminal() && namespace == "" {
				if err := initForm(&conf).RunWithContext(cmd.Context()); err != nil {
					return err
				}
			}
			if err := conf.Validate(); err != nil {
				return err
			}
			if err := config.Write(path, conf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "",
		"default namespace for tags without an alias (prompted for on a terminal)")
	cmd.Flags().StringVar(&sourceDir, "source-dir", "",
		"class directory relative to the application (default "+config.DefaultSourceDir+")")
	cmd.Flags().StringVar(&lineEnding, "line-ending", "",
		"line ending of generated files: crlf or lf (default "+config.DefaultLineEnding+")")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false,
		"replace an existing configuration")
	return cmd
}

func initForm(conf *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default namespace").
				Description("Tags without an alias resolve into this namespace.").
				Placeholder("qx.ui.mobile").
				Value(&conf.DefaultNamespace).
				Validate(validate.Namespace),
			huh.NewInput().
				Title("Source directory").
				Description("Relative to the application root.").
				Value(&conf.SourceDir),
			huh.NewSelect[string]().
				Title("Line ending").
				Options(
					huh.NewOption("CRLF", config.LineEndingCRLF),
					huh.NewOption("LF", config.LineEndingLF),
				).
				Value(&conf.LineEnding),
		),
	)
}

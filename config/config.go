// Package config loads the project configuration from tojs.yaml or the
// legacy tojs_config.json.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/romshark/yamagiconf"

	"github.com/romshark/tojs/compiler"
	"github.com/romshark/tojs/encode"
	"github.com/romshark/tojs/resolve"
)

const (
	FileName       = "tojs.yaml"
	LegacyFileName = "tojs_config.json"
)

// Defaults.
const (
	DefaultSourceDir  = "source/class"
	DefaultInclude    = "**/*.xml"
	DefaultLineEnding = LineEndingCRLF
)

// Line ending names.
const (
	LineEndingCRLF = "crlf"
	LineEndingLF   = "lf"
)

var (
	ErrNotFound       = errors.New("no configuration file found")
	ErrPatternInvalid = errors.New("invalid glob pattern")
	ErrSourceDir      = errors.New("source-dir must be a relative path inside the application")
)

type Config struct {
	// DefaultNamespace qualifies tags that are neither aliased
	// nor fully qualified.
	DefaultNamespace string `yaml:"default-namespace" validate:"required"`

	// Aliases maps tag names to fully-qualified class names.
	Aliases map[string]string `yaml:"aliases"`

	// SourceDir is the class directory relative to the application root.
	// Sources are discovered and outputs written inside it.
	SourceDir string `yaml:"source-dir" validate:"required"`

	// Include and Exclude are doublestar globs relative to SourceDir.
	Include []string `yaml:"include" validate:"required,min=1"`
	Exclude []string `yaml:"exclude"`

	LineEnding string `yaml:"line-ending" validate:"oneof=crlf lf"`

	Translation Translation `yaml:"translation"`
}

// Translation names the runtime translation functions.
type Translation struct {
	Func        string `yaml:"func" validate:"required"`
	ContextFunc string `yaml:"context-func" validate:"required"`
}

// Default returns a configuration with every optional setting
// at its default.
func Default(defaultNamespace string) Config {
	return Config{
		DefaultNamespace: defaultNamespace,
		Aliases:          map[string]string{},
		SourceDir:        DefaultSourceDir,
		Include:          []string{DefaultInclude},
		Exclude:          []string{},
		LineEnding:       DefaultLineEnding,
		Translation: Translation{
			Func:        encode.DefaultFuncs.Translate,
			ContextFunc: encode.DefaultFuncs.TranslateContext,
		},
	}
}

// Validate implements yamagiconf.Validator.
func (c Config) Validate() error {
	if _, err := c.Resolver(); err != nil {
		return err
	}
	if filepath.IsAbs(c.SourceDir) || !filepath.IsLocal(filepath.FromSlash(c.SourceDir)) {
		return fmt.Errorf("%w: %q", ErrSourceDir, c.SourceDir)
	}
	for _, p := range slices.Concat(c.Include, c.Exclude) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrPatternInvalid, p)
		}
	}
	return nil
}

// Resolver creates the name resolver for this configuration.
func (c Config) Resolver() (*resolve.Resolver, error) {
	return resolve.New(c.DefaultNamespace, c.Aliases)
}

// CompilerOptions returns the compiler options for this configuration.
func (c Config) CompilerOptions() compiler.Options {
	o := compiler.Options{
		LineEnding: compiler.CRLF,
		Translation: encode.Funcs{
			Translate:        c.Translation.Func,
			TranslateContext: c.Translation.ContextFunc,
		},
	}
	if c.LineEnding == LineEndingLF {
		o.LineEnding = compiler.LF
	}
	return o
}

// Source describes the file a configuration was read from.
type Source struct {
	Path    string
	ModTime time.Time

	// Legacy is true when the configuration came from LegacyFileName.
	Legacy bool
}

// Load reads the configuration of the application in appDir.
// FileName takes precedence over LegacyFileName.
func Load(appDir string) (*Config, Source, error) {
	src := Source{Path: filepath.Join(appDir, FileName)}
	info, err := os.Stat(src.Path)
	switch {
	case err == nil:
		src.ModTime = info.ModTime()
		var c Config
		if err := yamagiconf.LoadFile(src.Path, &c); err != nil {
			return nil, src, fmt.Errorf("loading %s: %w", src.Path, err)
		}
		return &c, src, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, src, err
	}

	src = Source{Path: filepath.Join(appDir, LegacyFileName), Legacy: true}
	info, err = os.Stat(src.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Source{}, fmt.Errorf("%w in %s: expected %s or %s",
			ErrNotFound, appDir, FileName, LegacyFileName)
	} else if err != nil {
		return nil, src, err
	}
	src.ModTime = info.ModTime()

	c, err := loadLegacy(src.Path)
	if err != nil {
		return nil, src, fmt.Errorf("loading %s: %w", src.Path, err)
	}
	return c, src, nil
}

type legacyConfig struct {
	DefaultPackage string            `yaml:"defaultPackage"`
	Aliases        map[string]string `yaml:"aliases"`
}

func loadLegacy(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l legacyConfig
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	c := Default(l.DefaultPackage)
	if l.Aliases != nil {
		c.Aliases = l.Aliases
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Write writes c as YAML to path.
func Write(path string, c Config) error {
	b, err := yaml.MarshalWithOptions(c, yaml.IndentSequence(true))
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

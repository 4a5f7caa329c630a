// Package config loads the optional .rendezvous.yaml project file.
//
// The file pins the two directories and the default options of a project
// so that running `rendezvous` from the project root needs no arguments.
// Command-line flags always take precedence over values from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".rendezvous.yaml"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	reporters = []string{"pretty", "json"}
	groupings = []string{"none", "kind"}
	colors    = []string{ColorAuto, ColorAlways, ColorNever}
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the .rendezvous.yaml structure.
type File struct {
	// GeneratedDir holds the freshly generated source .strings files.
	GeneratedDir string `yaml:"generated_dir,omitempty"`
	// TranslationsDir holds the <lang>.lproj folders.
	TranslationsDir string `yaml:"translations_dir,omitempty"`

	Reporter     string `yaml:"reporter,omitempty"`
	GroupBy      string `yaml:"group_by,omitempty"`
	Color        string `yaml:"color,omitempty"`
	FolderSuffix string `yaml:"folder_suffix,omitempty"`
	Extension    string `yaml:"extension,omitempty"`
	// Jobs is the number of files merged in parallel (default 1).
	Jobs int `yaml:"jobs,omitempty"`
	// Strict rejects files with malformed entries instead of skipping them.
	Strict bool `yaml:"strict,omitempty"`

	// Path is the file the values were read from. Empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Reporter:     "pretty",
		GroupBy:      "none",
		Color:        ColorAuto,
		FolderSuffix: ".lproj",
		Extension:    ".strings",
		Jobs:         1,
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads FileName from dir. It returns nil, nil when dir has no
// config file.
func Load(fs afero.Fs, dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	f, err := LoadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return f, err
}

// LoadFile reads, defaults, validates and resolves the config at path.
// Relative directories are resolved against the directory of path.
func LoadFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	f.applyDefaults()

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	f.GeneratedDir = resolve(base, f.GeneratedDir)
	f.TranslationsDir = resolve(base, f.TranslationsDir)
	return f, nil
}

// applyDefaults restores defaults for keys that were present but empty.
func (f *File) applyDefaults() {
	d := Default()
	if f.Reporter == "" {
		f.Reporter = d.Reporter
	}
	if f.GroupBy == "" {
		f.GroupBy = d.GroupBy
	}
	if f.Color == "" {
		f.Color = d.Color
	}
	if f.FolderSuffix == "" {
		f.FolderSuffix = d.FolderSuffix
	}
	if f.Extension == "" {
		f.Extension = d.Extension
	}
	if f.Jobs == 0 {
		f.Jobs = d.Jobs
	}
}

// Validate checks every option against its accepted values.
func (f *File) Validate() error {
	if !lo.Contains(reporters, strings.ToLower(f.Reporter)) {
		return fmt.Errorf("%w: reporter %q (valid: %s)", ErrInvalid, f.Reporter, strings.Join(reporters, ", "))
	}
	if !lo.Contains(groupings, strings.ToLower(f.GroupBy)) {
		return fmt.Errorf("%w: group_by %q (valid: %s)", ErrInvalid, f.GroupBy, strings.Join(groupings, ", "))
	}
	if !lo.Contains(colors, strings.ToLower(f.Color)) {
		return fmt.Errorf("%w: color %q (valid: %s)", ErrInvalid, f.Color, strings.Join(colors, ", "))
	}
	if f.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, f.Jobs)
	}
	if !strings.HasPrefix(f.Extension, ".") {
		return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalid, f.Extension)
	}
	if strings.ContainsRune(f.FolderSuffix, filepath.Separator) {
		return fmt.Errorf("%w: folder_suffix %q contains a path separator", ErrInvalid, f.FolderSuffix)
	}
	return nil
}

func resolve(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

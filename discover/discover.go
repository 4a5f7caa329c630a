// Package discover finds the files a merge run works on.
//
// Layout:
//
//	generated_dir/Main.strings          (source of truth)
//	generated_dir/InfoPlist.strings
//	translations_dir/fr.lproj/Main.strings
//	translations_dir/de.lproj/Main.strings
//
// Source files are the .strings files directly inside the generated
// directory. Language folders are the immediate subdirectories of the
// translations directory whose name ends with the localization suffix.
// Files are paired by base name.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/rendezvous/stringsfile"
	"github.com/minios-linux/rendezvous/textenc"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const (
	// DefaultFolderSuffix identifies language folders.
	DefaultFolderSuffix = ".lproj"
	// DefaultExtension identifies catalog files.
	DefaultExtension = ".strings"
)

// ErrDirectoryNotFound is returned when a root directory does not exist or
// is not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// Options controls which files are picked up.
type Options struct {
	FolderSuffix string
	Extension    string
	// Policy is handed to every discovered file.
	Policy stringsfile.MalformedPolicy
}

func (o Options) withDefaults() Options {
	if o.FolderSuffix == "" {
		o.FolderSuffix = DefaultFolderSuffix
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	return o
}

// Folder is one language folder and the catalogs it holds.
type Folder struct {
	Path  string
	Files []*stringsfile.File
}

// Has reports whether the folder contains a file with the given base name.
func (f Folder) Has(name string) bool {
	return lo.ContainsBy(f.Files, func(file *stringsfile.File) bool { return file.Name == name })
}

// CopyOp describes a source file that a language folder is missing.
type CopyOp struct {
	From string
	To   string
}

// Plan is the result of scanning both roots.
type Plan struct {
	GeneratedDir    string
	TranslationsDir string
	Sources         []*stringsfile.File
	Folders         []Folder
}

// CheckDir verifies that path exists and is a directory.
func CheckDir(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, path)
	}
	return nil
}

// resolve follows a symbolic link so that linked catalogs and folders are
// treated like their targets. A dangling link keeps its own info and is
// skipped by the callers.
func resolve(fs afero.Fs, path string, info os.FileInfo) os.FileInfo {
	if info.Mode()&os.ModeSymlink == 0 {
		return info
	}
	target, err := fs.Stat(path)
	if err != nil {
		return info
	}
	return target
}

// StringsFiles lists the regular files in dir carrying ext, sorted by
// name, with their encoding detected. Symbolic links to regular files are
// included.
func StringsFiles(fs afero.Fs, dir, ext string, policy stringsfile.MalformedPolicy) ([]*stringsfile.File, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []*stringsfile.File
	for _, info := range infos {
		if filepath.Ext(info.Name()) != ext {
			continue
		}
		path := filepath.Join(dir, info.Name())
		if !resolve(fs, path, info).Mode().IsRegular() {
			continue
		}
		enc := textenc.Detect(fs, path)
		files = append(files, stringsfile.New(fs, path, enc, stringsfile.WithMalformedPolicy(policy)))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// LanguageFolders lists the subdirectories of dir whose name ends in
// suffix, sorted. Symbolic links to directories are included.
func LanguageFolders(fs afero.Fs, dir, suffix string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var folders []string
	for _, info := range infos {
		if !strings.HasSuffix(info.Name(), suffix) {
			continue
		}
		path := filepath.Join(dir, info.Name())
		if resolve(fs, path, info).IsDir() {
			folders = append(folders, path)
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// Scan checks both roots and collects source files and language folders.
// A missing root fails with ErrDirectoryNotFound before anything is read.
func Scan(fs afero.Fs, generatedDir, translationsDir string, opts Options) (*Plan, error) {
	opts = opts.withDefaults()
	for _, dir := range []string{generatedDir, translationsDir} {
		if err := CheckDir(fs, dir); err != nil {
			return nil, err
		}
	}

	sources, err := StringsFiles(fs, generatedDir, opts.Extension, opts.Policy)
	if err != nil {
		return nil, err
	}
	folderPaths, err := LanguageFolders(fs, translationsDir, opts.FolderSuffix)
	if err != nil {
		return nil, err
	}

	plan := &Plan{GeneratedDir: generatedDir, TranslationsDir: translationsDir, Sources: sources}
	for _, path := range folderPaths {
		files, err := StringsFiles(fs, path, opts.Extension, opts.Policy)
		if err != nil {
			return nil, err
		}
		plan.Folders = append(plan.Folders, Folder{Path: path, Files: files})
	}
	return plan, nil
}

// Matches returns the translation files sharing source's base name, in
// folder order.
func (p *Plan) Matches(source *stringsfile.File) []*stringsfile.File {
	var out []*stringsfile.File
	for _, folder := range p.Folders {
		out = append(out, lo.Filter(folder.Files, func(f *stringsfile.File, _ int) bool {
			return f.Name == source.Name
		})...)
	}
	return out
}

// Missing lists, for every language folder, the source files it lacks.
func (p *Plan) Missing() []CopyOp {
	var ops []CopyOp
	for _, folder := range p.Folders {
		for _, src := range p.Sources {
			if folder.Has(src.Name) {
				continue
			}
			ops = append(ops, CopyOp{From: src.Path, To: filepath.Join(folder.Path, src.Name)})
		}
	}
	return ops
}

// Pairs returns the number of (source, translation) pairs in the plan.
func (p *Plan) Pairs() int {
	n := 0
	for _, src := range p.Sources {
		n += len(p.Matches(src))
	}
	return n
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func writeConfig(t *testing.T, fs afero.Fs, dir, content string) string {
	t.Helper()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, FileName)
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	f, err := Load(afero.NewMemMapFs(), "/project")
	if err != nil || f != nil {
		t.Fatalf("Load() = %v, %v; want nil, nil", f, err)
	}
}

func TestLoadDefaultsAndResolution(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeConfig(t, fs, "/project", "generated_dir: build/strings\ntranslations_dir: /abs/Translations\n")

	f, err := Load(fs, "/project")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Path != path {
		t.Errorf("Path = %q", f.Path)
	}
	if f.GeneratedDir != "/project/build/strings" {
		t.Errorf("GeneratedDir = %q", f.GeneratedDir)
	}
	if f.TranslationsDir != "/abs/Translations" {
		t.Errorf("TranslationsDir = %q", f.TranslationsDir)
	}
	d := Default()
	if f.Reporter != d.Reporter || f.GroupBy != d.GroupBy || f.Color != d.Color ||
		f.FolderSuffix != ".lproj" || f.Extension != ".strings" || f.Jobs != 1 || f.Strict {
		t.Fatalf("defaults not applied: %+v", f)
	}
}

func TestLoadAllKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeConfig(t, fs, "/p", `
generated_dir: gen
translations_dir: tr
reporter: json
group_by: kind
color: never
folder_suffix: .loc
extension: .txt
jobs: 4
strict: true
`)
	f, err := LoadFile(fs, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := File{
		GeneratedDir:    "/p/gen",
		TranslationsDir: "/p/tr",
		Reporter:        "json",
		GroupBy:         "kind",
		Color:           ColorNever,
		FolderSuffix:    ".loc",
		Extension:       ".txt",
		Jobs:            4,
		Strict:          true,
		Path:            path,
	}
	if *f != want {
		t.Fatalf("LoadFile() = %+v, want %+v", *f, want)
	}
}

func TestLoadValidation(t *testing.T) {
	for name, content := range map[string]string{
		"reporter":  "reporter: xml\n",
		"group_by":  "group_by: file\n",
		"color":     "color: sometimes\n",
		"jobs":      "jobs: -2\n",
		"extension": "extension: strings\n",
		"suffix":    "folder_suffix: a/b\n",
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeConfig(t, fs, "/p", content)
			if _, err := Load(fs, "/p"); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadSyntaxError(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/p", "jobs: [1\n")
	if _, err := Load(fs, "/p"); err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("Load() error = %v, want a parse error", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(afero.NewMemMapFs(), "/nowhere/custom.yaml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadFile() error = %v, want not-exist", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("reporter: json\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Load(afero.NewOsFs(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Reporter != "json" {
		t.Fatalf("Reporter = %q", f.Reporter)
	}
}

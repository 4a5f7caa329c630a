package discover

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minios-linux/rendezvous/stringsfile"
	"github.com/minios-linux/rendezvous/textenc"
	"github.com/spf13/afero"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func names(files []*stringsfile.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestCheckDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/gen/Main.strings": ""})

	if err := CheckDir(fs, "/gen"); err != nil {
		t.Fatalf("CheckDir(/gen) = %v", err)
	}
	if err := CheckDir(fs, "/missing"); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("CheckDir(missing) = %v, want ErrDirectoryNotFound", err)
	}
	if err := CheckDir(fs, "/gen/Main.strings"); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("CheckDir(file) = %v, want ErrDirectoryNotFound", err)
	}
}

func TestScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/gen/Main.strings":         "\"a\" = \"1\";\n",
		"/gen/Info.strings":         "\"b\" = \"2\";\n",
		"/gen/notes.txt":            "ignored",
		"/gen/nested/Deep.strings":  "ignored",
		"/tr/fr.lproj/Main.strings": "\"a\" = \"un\";\n",
		"/tr/de.lproj/Main.strings": "\"a\" = \"eins\";\n",
		"/tr/de.lproj/Info.strings": "\"b\" = \"zwei\";\n",
		"/tr/Base/Main.strings":     "not a language folder",
		"/tr/es.lproj/README.md":    "ignored",
		"/tr/stray.lproj.strings":   "a file, not a folder",
	})

	plan, err := Scan(fs, "/gen", "/tr", Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got := names(plan.Sources); !reflect.DeepEqual(got, []string{"/gen/Info.strings", "/gen/Main.strings"}) {
		t.Fatalf("sources = %v", got)
	}
	var folders []string
	for _, f := range plan.Folders {
		folders = append(folders, f.Path)
	}
	if !reflect.DeepEqual(folders, []string{"/tr/de.lproj", "/tr/es.lproj", "/tr/fr.lproj"}) {
		t.Fatalf("folders = %v", folders)
	}

	main := plan.Sources[1]
	if got := names(plan.Matches(main)); !reflect.DeepEqual(got, []string{"/tr/de.lproj/Main.strings", "/tr/fr.lproj/Main.strings"}) {
		t.Fatalf("Matches(Main) = %v", got)
	}
	if plan.Pairs() != 3 {
		t.Fatalf("Pairs() = %d, want 3", plan.Pairs())
	}

	want := []CopyOp{
		{From: "/gen/Info.strings", To: "/tr/es.lproj/Info.strings"},
		{From: "/gen/Main.strings", To: "/tr/es.lproj/Main.strings"},
		{From: "/gen/Info.strings", To: "/tr/fr.lproj/Info.strings"},
	}
	if got := plan.Missing(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}
}

func TestScanDetectsEncodings(t *testing.T) {
	fs := afero.NewMemMapFs()
	utf16, err := textenc.Encode(textenc.UTF16BigEndian, "\"a\" = \"1\";\n")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	writeFiles(t, fs, map[string]string{
		"/gen/Main.strings":         "\"a\" = \"é\";\n",
		"/tr/ja.lproj/Main.strings": string(utf16),
	})

	plan, err := Scan(fs, "/gen", "/tr", Options{Policy: stringsfile.RejectMalformed})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := plan.Sources[0].Encoding; got != textenc.UTF8 {
		t.Fatalf("source encoding = %v, want UTF-8", got)
	}
	if got := plan.Folders[0].Files[0].Encoding; got != textenc.UTF16BigEndian {
		t.Fatalf("translation encoding = %v, want UTF-16 Big Endian", got)
	}
}

func TestScanMissingRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/gen/Main.strings": ""})
	if _, err := Scan(fs, "/gen", "/nope", Options{}); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("Scan() error = %v, want ErrDirectoryNotFound", err)
	}
}

func TestCustomSuffixAndExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/gen/app.loc":         "",
		"/gen/Main.strings":    "",
		"/tr/fr-lang/app.loc":  "",
		"/tr/fr.lproj/app.loc": "",
	})
	plan, err := Scan(fs, "/gen", "/tr", Options{FolderSuffix: "-lang", Extension: ".loc"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(plan.Sources) != 1 || plan.Sources[0].Name != "app.loc" {
		t.Fatalf("sources = %v", names(plan.Sources))
	}
	if len(plan.Folders) != 1 || plan.Folders[0].Path != "/tr/fr-lang" {
		t.Fatalf("folders = %+v", plan.Folders)
	}
}

func TestScanFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "shared")
	fs := afero.NewOsFs()
	writeFiles(t, fs, map[string]string{
		filepath.Join(shared, "Main.strings"):                 "\"a\" = \"1\";\n",
		filepath.Join(shared, "it.lproj", "Main.strings"):     "\"a\" = \"uno\";\n",
		filepath.Join(root, "gen", "Info.strings"):            "\"b\" = \"2\";\n",
		filepath.Join(root, "tr", "fr.lproj", "Info.strings"): "\"b\" = \"deux\";\n",
	})
	links := map[string]string{
		filepath.Join(shared, "Main.strings"):  filepath.Join(root, "gen", "Main.strings"),
		filepath.Join(shared, "it.lproj"):      filepath.Join(root, "tr", "it.lproj"),
		filepath.Join(root, "missing.strings"): filepath.Join(root, "gen", "Dangling.strings"),
		filepath.Join(root, "missing.lproj"):   filepath.Join(root, "tr", "nl.lproj"),
	}
	for target, link := range links {
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
	}

	plan, err := Scan(fs, filepath.Join(root, "gen"), filepath.Join(root, "tr"), Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	wantSources := []string{filepath.Join(root, "gen", "Info.strings"), filepath.Join(root, "gen", "Main.strings")}
	if got := names(plan.Sources); !reflect.DeepEqual(got, wantSources) {
		t.Fatalf("Sources = %v, want %v", got, wantSources)
	}

	var folders []string
	for _, f := range plan.Folders {
		folders = append(folders, f.Path)
	}
	wantFolders := []string{filepath.Join(root, "tr", "fr.lproj"), filepath.Join(root, "tr", "it.lproj")}
	if !reflect.DeepEqual(folders, wantFolders) {
		t.Fatalf("Folders = %v, want %v", folders, wantFolders)
	}
	if got := names(plan.Folders[1].Files); !reflect.DeepEqual(got, []string{filepath.Join(root, "tr", "it.lproj", "Main.strings")}) {
		t.Fatalf("it.lproj files = %v", got)
	}
}

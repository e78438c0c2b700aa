// Package edit applies file edits requested by the model: backups next to
// the target, diffs and confirmations, and a warning when the target is not
// tracked by the surrounding repository.
package edit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/alantheprice/ori/pkg/protocol"
	"github.com/alantheprice/ori/pkg/ui"
	"github.com/alantheprice/ori/pkg/utils"
)

// BackupSuffix is appended to a file name to form its backup.
const BackupSuffix = ".ori.bak"

func BackupPath(file string) string {
	return file + BackupSuffix
}

// Editor implements protocol.EditCollaborator.
type Editor struct {
	in     *bufio.Reader
	out    io.Writer
	logger *utils.Logger
}

type Option func(*Editor)

func WithLogger(logger *utils.Logger) Option {
	return func(e *Editor) { e.logger = logger }
}

// NewEditor creates an editor that asks its questions on in and out.
func NewEditor(in *bufio.Reader, out io.Writer, opts ...Option) *Editor {
	e := &Editor{in: in, out: out}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateBackup copies file to its backup path.
func (e *Editor) CreateBackup(file string) bool {
	if err := copyFile(file, BackupPath(file)); err != nil {
		e.logf("backup of %s failed: %v", file, err)
		return false
	}
	e.logf("backed up %s", file)
	return true
}

// RestoreBackup moves the backup of file back into place.
func (e *Editor) RestoreBackup(file string) bool {
	backup := BackupPath(file)
	if _, err := os.Stat(backup); err != nil {
		ui.Printf(e.out, ui.Red, "No backup file found")
		return false
	}
	if err := os.Rename(backup, file); err != nil {
		e.logf("restore of %s failed: %v", file, err)
		ui.Printf(e.out, ui.Red, "Failed to restore backup: %v", err)
		return false
	}
	ui.Printf(e.out, ui.Green, "Backup restored successfully")
	return true
}

// ApplyChanges writes op.NewContent to op.File after the backup, preview,
// diff and confirmation steps its flags ask for.
func (e *Editor) ApplyChanges(op protocol.EditOperation) bool {
	current, err := os.ReadFile(op.File)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		ui.Printf(e.out, ui.Red, "Failed to read %s: %v", op.File, err)
		return false
	}

	if op.Safe && e.ignoredByRepo(op.File) {
		ui.Printf(e.out, ui.Yellow, "Warning: %s is ignored by .gitignore and not under version control", op.File)
	}

	if op.Backup && exists {
		if !e.CreateBackup(op.File) {
			ui.Printf(e.out, ui.Red, "Failed to create backup")
			return false
		}
	}

	if op.Preview {
		e.Preview(op.File, string(current), op.NewContent)
	}

	if op.Interactive && !e.Confirm("Apply these changes?") {
		return false
	}

	if op.Diff {
		e.Preview(op.File, string(current), op.NewContent)
		if !e.Confirm("Apply these changes?") {
			return false
		}
	}

	if err := writeFileAtomic(op.File, []byte(op.NewContent)); err != nil {
		e.logf("write of %s failed: %v", op.File, err)
		ui.Printf(e.out, ui.Red, "Failed to open file for writing")
		return false
	}

	ui.Printf(e.out, ui.Green, "%s %s: changes applied successfully", utils.CapitalizeWords(string(op.Kind)), op.File)
	return true
}

// Preview prints the diff between the current and proposed content.
func (e *Editor) Preview(name, current, proposed string) {
	fmt.Fprintln(e.out, ui.Colorize(ui.Bold, fmt.Sprintf("Preview of changes for %s:", name)))
	diff := Diff(name, current, proposed)
	if diff == "" {
		fmt.Fprintln(e.out, "No changes detected.")
		return
	}
	fmt.Fprint(e.out, diff)
}

// ShowDiff prints the diff of fileA against fileB and asks whether to apply.
func (e *Editor) ShowDiff(fileA, fileB string) bool {
	a, err := os.ReadFile(fileA)
	if err != nil {
		ui.Printf(e.out, ui.Red, "Failed to read %s: %v", fileA, err)
		return false
	}
	b, err := os.ReadFile(fileB)
	if err != nil {
		ui.Printf(e.out, ui.Red, "Failed to read %s: %v", fileB, err)
		return false
	}

	diff := Diff(fileA+" -> "+fileB, string(a), string(b))
	if diff == "" {
		fmt.Fprintln(e.out, "No changes detected.")
	}
	fmt.Fprint(e.out, diff)
	return e.Confirm("Apply these changes?")
}

// Confirm asks a y/n question; only y or yes accepts.
func (e *Editor) Confirm(question string) bool {
	fmt.Fprint(e.out, ui.Colorize(ui.Yellow, question+" (y/n): "))
	answer, err := e.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// ignoredByRepo reports whether file matches the .gitignore of the nearest
// enclosing git repository.
func (e *Editor) ignoredByRepo(file string) bool {
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	root := repoRoot(filepath.Dir(abs))
	if root == "" {
		return false
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return gi.MatchesPath(filepath.ToSlash(rel))
}

func repoRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeFileAtomic writes through a temporary file in the same directory and
// renames it over path, keeping the existing mode.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (e *Editor) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}

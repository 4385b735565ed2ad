// Package writer assembles emitted fragments into the final C++ header and
// source text, hands them to clang-format and saves generated files.
package writer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	headerTemplate = "header.h.tmpl"
	sourceTemplate = "source.cpp.tmpl"
)

// Config is threaded explicitly into every Writer.
type Config struct {
	// clang-format style name, e.g. "Mozilla". Empty disables formatting.
	Style string
	// Path or name of the clang-format executable. Defaults to "clang-format".
	ClangFormatPath string
}

// NativeDocument is everything the header and source templates need for one class.
// Member lists are emitted in the order given.
type NativeDocument struct {
	HeaderName string
	Includes   []string
	Block      string
	// C++ namespace of the class, e.g. "demo" or "a::b". Empty for the global namespace.
	Namespace         string
	ClassName         string
	QualifiedName     string
	InternalNamespace string
	HandleType        string

	CreateSymbol     string
	InitialiseSymbol string
	DropSymbol       string

	// Q_PROPERTY lines.
	Meta []string
	// Declarations per access section.
	Public  []string
	Slots   []string
	Signals []string
	Private []string
	// Member storage declarations.
	Members []string

	// Out-of-line member definitions and extern "C" shims.
	Definitions []string
	Shims       []string
}

type Writer struct {
	config Config
}

func New(config Config) *Writer {
	if config.ClangFormatPath == "" {
		config.ClangFormatPath = "clang-format"
	}
	return &Writer{config: config}
}

func (w *Writer) Config() Config {
	return w.config
}

func (w *Writer) RenderHeader(document NativeDocument) (string, error) {
	return render(headerTemplate, document)
}

func (w *Writer) RenderSource(document NativeDocument) (string, error) {
	return render(sourceTemplate, document)
}

func render(name string, document NativeDocument) (string, error) {
	var buffer bytes.Buffer
	if err := templates.ExecuteTemplate(&buffer, name, document); err != nil {
		return "", fmt.Errorf("failed to execute template %s for %s: %w", name, document.QualifiedName, err)
	}
	return buffer.String(), nil
}

// Format pipes C++ text through clang-format. Formatting is best effort:
// when the tool is missing or fails the input is returned unchanged.
func (w *Writer) Format(ctx context.Context, fileName, text string) string {
	if w.config.Style == "" {
		return text
	}

	path, err := exec.LookPath(w.config.ClangFormatPath)
	if err != nil {
		Logger().Warn("clang-format not found, keeping unformatted output",
			zap.String("file", fileName),
			zap.String("clangFormat", w.config.ClangFormatPath),
			zap.Error(err),
		)
		return text
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--style="+w.config.Style, "--assume-filename="+fileName)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		Logger().Warn("clang-format failed, keeping unformatted output",
			zap.String("file", fileName),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err),
		)
		return text
	}

	Logger().Debug("formatted", zap.String("file", fileName), zap.String("style", w.config.Style))
	return stdout.String()
}

type File struct {
	Name    string
	Content []byte
}

// Save writes all files into dir or none of them. Every file is first written
// to a temporary file next to its destination and renamed into place once all
// temporary files exist. Files a failed Save already moved into place are
// removed again and the versions they replaced are restored.
func Save(dir string, files ...File) (err error) {
	temporary := make([]string, 0, len(files))
	defer func() {
		if err == nil {
			return
		}
		for _, name := range temporary {
			_ = os.Remove(name)
		}
	}()

	for _, file := range files {
		name, err := writeTemporary(dir, file)
		if err != nil {
			return err
		}
		temporary = append(temporary, name)
	}

	moved := make([]placement, 0, len(files))
	for i, file := range files {
		current, err := place(temporary[i], filepath.Join(dir, file.Name))
		if err != nil {
			rollBack(moved)
			return err
		}
		moved = append(moved, current)
	}

	for i, current := range moved {
		if current.previous != "" {
			_ = os.Remove(current.previous)
		}
		Logger().Debug("saved", zap.String("file", current.destination), zap.Int("bytes", len(files[i].Content)))
	}
	return nil
}

// placement is a file moved into place, with the file it replaced parked at previous.
type placement struct {
	destination string
	previous    string
}

func place(temporary, destination string) (placement, error) {
	current := placement{destination: destination}

	info, err := os.Lstat(destination)
	switch {
	case err == nil && info.IsDir():
		return current, fmt.Errorf("failed to move %s into place: destination is a directory", destination)
	case err == nil:
		current.previous = temporary + ".previous"
		if err := os.Rename(destination, current.previous); err != nil {
			return current, fmt.Errorf("failed to set aside %s: %w", destination, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return current, fmt.Errorf("failed to inspect %s: %w", destination, err)
	}

	if err := os.Rename(temporary, destination); err != nil {
		if current.previous != "" {
			_ = os.Rename(current.previous, destination)
		}
		return current, fmt.Errorf("failed to move %s into place: %w", destination, err)
	}
	return current, nil
}

func rollBack(moved []placement) {
	for i := len(moved) - 1; i >= 0; i-- {
		current := moved[i]
		_ = os.Remove(current.destination)
		if current.previous != "" {
			_ = os.Rename(current.previous, current.destination)
		}
	}
}

func writeTemporary(dir string, file File) (string, error) {
	if file.Name == "" || filepath.Base(file.Name) != file.Name {
		return "", fmt.Errorf("invalid output file name %q", file.Name)
	}

	temp, err := os.CreateTemp(dir, "."+file.Name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for %s: %w", file.Name, err)
	}
	_, writeErr := temp.Write(file.Content)
	closeErr := temp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write %s: %w", file.Name, err)
	}
	if err := os.Chmod(temp.Name(), 0o644); err != nil {
		_ = os.Remove(temp.Name())
		return "", fmt.Errorf("failed to set mode of %s: %w", file.Name, err)
	}
	return temp.Name(), nil
}

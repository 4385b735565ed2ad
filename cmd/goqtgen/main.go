// goqtgen generates a Qt QObject class and its Go cgo host module from an object descriptor.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"goqtgen/internal"
	"goqtgen/internal/generation"
	"goqtgen/internal/metadata"
	"goqtgen/internal/writer"

	"go.uber.org/zap"
	"golang.org/x/mod/module"
)

func main() {
	var descriptorPath = flag.String("descriptor", "", "The path to the YAML object descriptor.")
	var objectsPath = flag.String("objects", "", "The path to a file listing the objects to generate, one per line. Default: all objects")
	var packageName = flag.String("packageName", "bindings", "The name of the package with generated Go code. Default: bindings")
	var outputPath = flag.String("outputPath", "./output/", "The path where all generated files will be placed.")
	var runtimePath = flag.String("runtimePath", "goqtgen/qtrt", "The import path of the host runtime package.")
	var style = flag.String("style", "", "The clang-format style applied to native files. Default: unformatted")
	var clangFormat = flag.String("clangFormat", "clang-format", "The clang-format executable.")
	var forceClean = flag.Bool("forceCleanOutput", false, "If given forces cleaning output directory before generation.")
	var verbose = flag.Bool("verbose", false, "If given logs at debug level in a human readable format.")
	flag.Usage = func() {
		fmt.Println("App that generates Qt objects backed by Go.")
		flag.PrintDefaults()
	}

	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()
	generation.SetLogger(logger)
	writer.SetLogger(logger)

	if *descriptorPath == "" {
		logger.Fatal("Descriptor path is missing!")
	} else if _, err := os.Stat(*descriptorPath); errors.Is(err, os.ErrNotExist) {
		logger.Fatal("Descriptor file does not exist!", zap.String("path", *descriptorPath))
	}
	if err := module.CheckImportPath(*runtimePath); err != nil {
		logger.Fatal("Invalid runtime import path", zap.Error(err))
	}

	reader, err := metadata.NewReader(*descriptorPath)
	if err != nil {
		logger.Fatal("Could not read descriptor", zap.Error(err))
	}

	objects := reader.Objects()
	if *objectsPath != "" {
		objects, err = selectObjects(reader, *objectsPath)
		if err != nil {
			logger.Fatal("Could not select objects", zap.Error(err))
		}
	}

	if err := ClearDirectoryIfNotEmpty(*outputPath, *forceClean, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("Could not prepare output directory", zap.Error(err))
	}

	w := writer.New(writer.Config{Style: *style, ClangFormatPath: *clangFormat})
	generator := generation.NewGenerator(*packageName, *outputPath, *runtimePath, w)
	for _, object := range objects {
		generator.RegisterObject(object)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := generator.Generate(ctx); err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}
	logger.Info("Generation finished", zap.Int("objects", len(objects)), zap.String("output", *outputPath))
}

func newLogger(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	internal.PanicOnError(err)
	return logger
}

// selectObjects resolves the names listed in path, plain or namespace qualified.
func selectObjects(reader metadata.DescriptorReader, path string) ([]metadata.Object, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var objects []metadata.Object
	fileScanner := bufio.NewScanner(file)
	for fileScanner.Scan() {
		name := strings.TrimSpace(fileScanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		object, found := reader.TryGetObject(name)
		if !found {
			return nil, fmt.Errorf("object %s is not declared in the descriptor", name)
		}
		objects = append(objects, object)
	}
	if err := fileScanner.Err(); err != nil {
		return nil, err
	}
	return objects, nil
}

// ClearDirectoryIfNotEmpty removes a non-empty output directory. Unless silent,
// the user has to confirm through in first.
func ClearDirectoryIfNotEmpty(path string, silent bool, in io.Reader, out io.Writer) error {
	directory, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer directory.Close()

	_, err = directory.Readdirnames(1)
	if err == io.EOF {
		return nil
	}

	if err != nil {
		return err
	}

	var response string
	if !silent {
		fmt.Fprint(out, "Output directory is not empty. Continuation will result in removing all output files. Proceed? [Y/n]")
		fmt.Fscan(in, &response)
		if strings.ToUpper(strings.TrimSpace(response)) != "Y" {
			return errors.New("explicit agreement was not given")
		}
	}

	fmt.Fprintln(out, "Cleaning output directory.")
	return os.RemoveAll(path)
}

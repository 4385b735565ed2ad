package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"goqtgen/internal"
	"goqtgen/internal/bridge"
	"goqtgen/internal/metadata"
	"goqtgen/internal/writer"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Generator struct {
	Objects     []metadata.Object
	PackageName string
	OutputPath  string
	// Import path of the host runtime the generated Go files use.
	RuntimePath string
	Writer      *writer.Writer
	// Objects emitted at the same time. Zero means GOMAXPROCS.
	Concurrency int
}

func NewGenerator(packageName string, outputPath string, runtimePath string, w *writer.Writer) Generator {
	return Generator{
		Objects:     make([]metadata.Object, 0),
		PackageName: packageName,
		OutputPath:  outputPath,
		RuntimePath: runtimePath,
		Writer:      w,
	}
}

func (generator *Generator) RegisterObject(object metadata.Object) {
	generator.Objects = append(generator.Objects, object)
}

// Generate writes a header, a source and a Go host file for every registered
// object. An object either gets all three files or none; failures of several
// objects are joined.
func (generator *Generator) Generate(ctx context.Context) error {
	contracts, err := generator.buildContracts()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(generator.OutputPath, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %s: %w", generator.OutputPath, err)
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(generator.concurrency())
	for _, contract := range contracts {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := contract.Object.QualifiedName()
			if err := generator.generateObject(ctx, contract); err != nil {
				Logger().Error("object not generated", zap.String("object", name), zap.Error(err))
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			Logger().Info("object generated", zap.String("object", name))
			return nil
		})
	}

	waitErr := group.Wait()
	return errors.Join(append([]error{waitErr}, failures...)...)
}

func (generator *Generator) concurrency() int {
	if generator.Concurrency > 0 {
		return generator.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// buildContracts derives every object's boundary and rejects symbols, output
// files or Go identifiers shared between objects.
func (generator *Generator) buildContracts() ([]*bridge.Contract, error) {
	if len(generator.Objects) == 0 {
		return nil, ErrNoObjects
	}

	contracts := make([]*bridge.Contract, 0, len(generator.Objects))
	var failures []error
	for _, object := range generator.Objects {
		if err := object.Validate(); err != nil {
			failures = append(failures, err)
			continue
		}
		contract, err := bridge.Build(object)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		contracts = append(contracts, contract)
	}
	if err := errors.Join(failures...); err != nil {
		return nil, err
	}

	if err := bridge.CheckDisjoint(contracts...); err != nil {
		return nil, err
	}

	owners := make(map[string]string)
	for _, contract := range contracts {
		object := contract.Object
		for _, name := range outputFileNames(object) {
			if owner, found := owners[name]; found {
				return nil, errorc.With(ErrOutputCollision,
					errorc.String(ErrorFieldFile, name),
					errorc.String(ErrorFieldObject, object.QualifiedName()),
					errorc.String(ErrorFieldOther, owner),
				)
			}
			owners[name] = object.QualifiedName()
		}
	}

	// Host files of all objects share one Go package.
	declared := make(map[string]string)
	for _, contract := range contracts {
		object := contract.Object
		for _, name := range packageIdentifiers(contract) {
			if owner, found := declared[name]; found {
				return nil, errorc.With(ErrIdentifierCollision,
					errorc.String(ErrorFieldIdentifier, name),
					errorc.String(ErrorFieldObject, object.QualifiedName()),
					errorc.String(ErrorFieldOther, owner),
				)
			}
			declared[name] = object.QualifiedName()
		}
	}
	return contracts, nil
}

func outputFileNames(object metadata.Object) []string {
	snake := internal.ToSnake(object.Name)
	return []string{snake + ".h", snake + ".cpp", hostFileName(object)}
}

// generateObject renders all files of one object in memory before saving any.
func (generator *Generator) generateObject(ctx context.Context, contract *bridge.Contract) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errorc.With(ErrEmission,
				errorc.String(ErrorFieldObject, contract.Object.QualifiedName()),
				errorc.String(ErrorFieldCause, fmt.Sprint(recovered)),
			)
		}
	}()

	names := outputFileNames(contract.Object)
	headerName, sourceName, hostName := names[0], names[1], names[2]

	document := emitNative(contract, headerName)
	header, err := generator.Writer.RenderHeader(document)
	if err != nil {
		return err
	}
	source, err := generator.Writer.RenderSource(document)
	if err != nil {
		return err
	}

	var host bytes.Buffer
	if err := emitHost(contract, generator.PackageName, generator.RuntimePath).Render(&host); err != nil {
		return fmt.Errorf("could not render %s: %w", hostName, err)
	}

	return writer.Save(generator.OutputPath,
		writer.File{Name: headerName, Content: []byte(generator.Writer.Format(ctx, headerName, header))},
		writer.File{Name: sourceName, Content: []byte(generator.Writer.Format(ctx, sourceName, source))},
		writer.File{Name: hostName, Content: host.Bytes()},
	)
}

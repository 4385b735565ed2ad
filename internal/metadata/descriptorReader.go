// The package used for describing generated objects and reading them from descriptor files.
package metadata

import (
	"fmt"
	"os"

	"goqtgen/internal"

	"github.com/hashicorp/go-version"
	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// Descriptor file versions this reader understands.
var supportedVersions = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

type descriptorFile struct {
	Version string        `yaml:"version"`
	Objects []objectEntry `yaml:"objects"`
}

type objectEntry struct {
	Name           string           `yaml:"name"`
	Namespace      string           `yaml:"namespace"`
	UpdateRequests bool             `yaml:"update_requests"`
	Properties     []propertyEntry  `yaml:"properties"`
	Invokables     []invokableEntry `yaml:"invokables"`
	Signals        []signalEntry    `yaml:"signals"`
}

type propertyEntry struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Default *string `yaml:"default"`
	Getter  string  `yaml:"getter"`
	Setter  string  `yaml:"setter"`
	Notify  string  `yaml:"notify"`
}

type parameterEntry struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Mutable bool   `yaml:"mutable"`
}

type invokableEntry struct {
	Name       string           `yaml:"name"`
	Mutable    bool             `yaml:"mutable"`
	Parameters []parameterEntry `yaml:"parameters"`
	Returns    string           `yaml:"returns"`
	Wrapper    string           `yaml:"wrapper"`
}

type signalEntry struct {
	Name       string           `yaml:"name"`
	Emit       string           `yaml:"emit"`
	Parameters []parameterEntry `yaml:"parameters"`
}

type DescriptorReader struct {
	objects []Object
	byName  map[string]int
}

// Reads the descriptor file under given path
func NewReader(descriptorPath string) (DescriptorReader, error) {
	content, err := os.ReadFile(descriptorPath)
	if err != nil {
		return DescriptorReader{}, fmt.Errorf("could not read descriptor %s: %w", descriptorPath, err)
	}
	return ParseDescriptor(content)
}

// Parses descriptor content, derives omitted identifiers and validates every object
func ParseDescriptor(content []byte) (DescriptorReader, error) {
	var file descriptorFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return DescriptorReader{}, fmt.Errorf("malformed descriptor: %w", err)
	}

	if err := checkVersion(file.Version); err != nil {
		return DescriptorReader{}, err
	}
	if len(file.Objects) == 0 {
		return DescriptorReader{}, ErrEmptyDescriptor
	}

	reader := DescriptorReader{
		objects: make([]Object, 0, len(file.Objects)),
		byName:  make(map[string]int, len(file.Objects)),
	}
	for _, entry := range file.Objects {
		object, err := entry.toObject()
		if err != nil {
			return DescriptorReader{}, fmt.Errorf("object %s: %w", entry.Name, err)
		}
		if err := object.Validate(); err != nil {
			return DescriptorReader{}, err
		}

		qualified := object.QualifiedName()
		if _, found := reader.byName[qualified]; found {
			return DescriptorReader{}, errorc.With(ErrDuplicateObject, errorc.String(ErrorFieldObject, qualified))
		}
		reader.byName[qualified] = len(reader.objects)
		reader.objects = append(reader.objects, object)
	}

	return reader, nil
}

// Returns all objects in descriptor order
func (reader *DescriptorReader) Objects() []Object {
	return reader.objects
}

// Tries to get object with given name, either plain ("MyObject") or qualified ("demo::MyObject")
func (reader *DescriptorReader) TryGetObject(name string) (element Object, found bool) {
	if index, found := reader.byName[name]; found {
		return reader.objects[index], true
	}
	for _, object := range reader.objects {
		if object.Name == name {
			return object, true
		}
	}
	return Object{}, false
}

func checkVersion(text string) error {
	fileVersion, err := version.NewVersion(text)
	if err != nil || !supportedVersions.Check(fileVersion) {
		return errorc.With(ErrUnsupportedVersion, errorc.String(ErrorFieldVersion, text))
	}
	return nil
}

func (entry objectEntry) toObject() (Object, error) {
	object := Object{
		Name:           entry.Name,
		Namespace:      entry.Namespace,
		UpdateRequests: entry.UpdateRequests,
		Properties:     make([]Property, 0, len(entry.Properties)),
		Invokables:     make([]Invokable, 0, len(entry.Invokables)),
		Signals:        make([]Signal, 0, len(entry.Signals)),
	}

	for _, p := range entry.Properties {
		propertyType, err := ParseValueType(p.Type)
		if err != nil {
			return Object{}, fmt.Errorf("property %s: %w", p.Name, err)
		}
		property := Property{
			Name:   p.Name,
			Type:   propertyType,
			Getter: orDefault(p.Getter, "get"+internal.ToPascal(p.Name)),
			Setter: orDefault(p.Setter, "set"+internal.ToPascal(p.Name)),
			Notify: orDefault(p.Notify, internal.ToCamel(p.Name)+"Changed"),
		}
		if p.Default != nil {
			property.Default = *p.Default
			property.HasDefault = true
		}
		object.Properties = append(object.Properties, property)
	}

	for _, i := range entry.Invokables {
		params, err := toParameters(i.Parameters)
		if err != nil {
			return Object{}, fmt.Errorf("invokable %s: %w", i.Name, err)
		}
		invokable := Invokable{
			Name:      i.Name,
			IsMutable: i.Mutable,
			Params:    params,
		}
		if i.Returns != "" {
			returnType, err := ParseValueType(i.Returns)
			if err != nil {
				return Object{}, fmt.Errorf("invokable %s: %w", i.Name, err)
			}
			invokable.Returns = &returnType
		}
		if invokable.NeedsWrapper() {
			invokable.Wrapper = orDefault(i.Wrapper, internal.ToCamel(i.Name)+"Wrapper")
		}
		object.Invokables = append(object.Invokables, invokable)
	}

	for _, s := range entry.Signals {
		params, err := toParameters(s.Parameters)
		if err != nil {
			return Object{}, fmt.Errorf("signal %s: %w", s.Name, err)
		}
		object.Signals = append(object.Signals, Signal{
			Name:   s.Name,
			Emit:   orDefault(s.Emit, "emit"+internal.ToPascal(s.Name)),
			Params: params,
		})
	}

	return object, nil
}

func toParameters(entries []parameterEntry) ([]Parameter, error) {
	params := make([]Parameter, 0, len(entries))
	for _, entry := range entries {
		paramType, err := ParseValueType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", entry.Name, err)
		}
		params = append(params, Parameter{
			Name:        entry.Name,
			Type:        paramType,
			IsMutable:   entry.Mutable,
			IsReference: paramType.NeedsConversion(),
		})
	}
	return params, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

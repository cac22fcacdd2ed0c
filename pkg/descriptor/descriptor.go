// Package descriptor loads protobuf schemas into nodegen's schema.Catalog.
//
// This package wraps the protobuf compiler and descriptor runtime so that
// .proto sources and binary FileDescriptorSets can feed the analysis in
// pkg/schema. It isolates the protobuf dependencies from other packages.
//
// # Basic Usage
//
// Compile a .proto file (standard imports such as google/protobuf/any.proto
// are always available):
//
//	cat, err := descriptor.LoadProto(ctx, "proto/sqltree.proto", "proto")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Load the output of protoc --descriptor_set_out --include_imports:
//
//	cat, err := descriptor.LoadDescriptorSet("sqltree.binpb")
//
// Load dispatches on the file extension.
//
// # Conversion
//
// FromFiles is deterministic: files are sorted by path, messages keep their
// declaration order with nested messages directly after their parent, and
// synthetic map-entry messages are omitted (map fields carry their key and
// value types instead).
package descriptor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/pthm/nodegen/internal/logging"
	"github.com/pthm/nodegen/pkg/schema"
)

// Load reads a schema from path. Files ending in .proto are compiled; any
// other file is read as a binary FileDescriptorSet.
func Load(ctx context.Context, path string, importPaths ...string) (*schema.Catalog, error) {
	if strings.EqualFold(filepath.Ext(path), ".proto") {
		return LoadProto(ctx, path, importPaths...)
	}
	return LoadDescriptorSet(ctx, path)
}

// LoadProto compiles a .proto file and converts it together with everything
// it imports. The catalog package is the package of the compiled file.
//
// Without import paths the file's own directory is used.
func LoadProto(ctx context.Context, path string, importPaths ...string) (*schema.Catalog, error) {
	name, paths := resolveImport(path, importPaths)

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: paths,
		}),
	}
	return compile(ctx, compiler, name)
}

// LoadProtoString compiles in-memory .proto source registered under name.
// Imports other than the standard ones are not resolvable.
func LoadProtoString(ctx context.Context, name, content string) (*schema.Catalog, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{name: content}),
		}),
	}
	return compile(ctx, compiler, name)
}

func compile(ctx context.Context, compiler protocompile.Compiler, name string) (*schema.Catalog, error) {
	log := logging.FromContext(ctx)

	files, err := compiler.Compile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling %s: %v", schema.ErrInvalidSchema, name, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: compiling %s produced no files", schema.ErrInvalidSchema, name)
	}

	main := files[0]
	all := transitive(main)
	log.Debug("compiled proto", "file", name, "package", main.Package(), "files", len(all))

	return FromFiles(string(main.Package()), all...)
}

// resolveImport returns the name to compile and the import paths to search.
// The name is made relative to the first import path containing path.
func resolveImport(path string, importPaths []string) (string, []string) {
	if len(importPaths) == 0 {
		return filepath.Base(path), []string{filepath.Dir(path)}
	}
	for _, dir := range importPaths {
		rel, err := filepath.Rel(dir, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel), importPaths
		}
	}
	return filepath.Base(path), append([]string{filepath.Dir(path)}, importPaths...)
}

// transitive returns fd and every file it imports, each once.
func transitive(fd protoreflect.FileDescriptor) []protoreflect.FileDescriptor {
	seen := make(map[string]bool)
	var out []protoreflect.FileDescriptor

	var visit func(protoreflect.FileDescriptor)
	visit = func(f protoreflect.FileDescriptor) {
		if seen[f.Path()] {
			return
		}
		seen[f.Path()] = true
		out = append(out, f)

		imports := f.Imports()
		for i := range imports.Len() {
			visit(imports.Get(i).FileDescriptor)
		}
	}
	visit(fd)
	return out
}

// LoadDescriptorSet reads a binary FileDescriptorSet. The catalog package is
// the package of the last file in the set, which protoc writes after its
// dependencies.
func LoadDescriptorSet(ctx context.Context, path string) (*schema.Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set: %w", err)
	}
	return ParseDescriptorSet(ctx, data)
}

// ParseDescriptorSet converts serialized FileDescriptorSet bytes.
func ParseDescriptorSet(ctx context.Context, data []byte) (*schema.Catalog, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: decoding descriptor set: %v", schema.ErrInvalidSchema, err)
	}
	if len(set.GetFile()) == 0 {
		return nil, fmt.Errorf("%w: empty descriptor set", schema.ErrInvalidSchema)
	}

	registry, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("%w: linking descriptor set: %v", schema.ErrInvalidSchema, err)
	}

	var files []protoreflect.FileDescriptor
	registry.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		files = append(files, fd)
		return true
	})
	pkg := set.GetFile()[len(set.GetFile())-1].GetPackage()

	logging.FromContext(ctx).Debug("loaded descriptor set", "package", pkg, "files", len(files))
	return FromFiles(pkg, files...)
}

// FromFiles converts file descriptors into a catalog rooted at pkg.
func FromFiles(pkg string, files ...protoreflect.FileDescriptor) (*schema.Catalog, error) {
	sorted := make([]protoreflect.FileDescriptor, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path() < sorted[j].Path()
	})

	var (
		messages []schema.Message
		enums    []schema.Enum
	)
	for _, fd := range sorted {
		collectEnums(fd.Enums(), &enums)
		collectMessages(fd.Messages(), &messages, &enums)
	}

	return schema.NewCatalog(pkg, messages, enums)
}

func collectMessages(descs protoreflect.MessageDescriptors, messages *[]schema.Message, enums *[]schema.Enum) {
	for i := range descs.Len() {
		md := descs.Get(i)
		if md.IsMapEntry() {
			continue
		}
		*messages = append(*messages, convertMessage(md))
		collectEnums(md.Enums(), enums)
		collectMessages(md.Messages(), messages, enums)
	}
}

func collectEnums(descs protoreflect.EnumDescriptors, enums *[]schema.Enum) {
	for i := range descs.Len() {
		ed := descs.Get(i)
		e := schema.Enum{Name: string(ed.FullName())}
		values := ed.Values()
		for j := range values.Len() {
			v := values.Get(j)
			e.Values = append(e.Values, schema.EnumValue{
				Name:   string(v.Name()),
				Number: int32(v.Number()),
			})
		}
		*enums = append(*enums, e)
	}
}

func convertMessage(md protoreflect.MessageDescriptor) schema.Message {
	m := schema.Message{Name: string(md.FullName())}
	fields := md.Fields()
	for i := range fields.Len() {
		m.Fields = append(m.Fields, convertField(fields.Get(i)))
	}
	return m
}

func convertField(fd protoreflect.FieldDescriptor) schema.Field {
	f := schema.Field{
		Name:     string(fd.Name()),
		Number:   int32(fd.Number()),
		JSONName: fd.JSONName(),
	}

	switch {
	case fd.IsMap():
		key := fieldType(fd.MapKey())
		f.MapKey = &key
		f.Type = fieldType(fd.MapValue())
		f.Repetition = schema.Repeated
	case fd.IsList():
		f.Type = fieldType(fd)
		f.Repetition = schema.Repeated
	default:
		f.Type = fieldType(fd)
	}
	return f
}

// fieldType collapses protobuf scalar encodings that share a Go type.
func fieldType(fd protoreflect.FieldDescriptor) schema.FieldType {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return schema.FieldType{Kind: schema.KindBool}
	case protoreflect.Int32Kind:
		return schema.FieldType{Kind: schema.KindInt32}
	case protoreflect.Sint32Kind:
		return schema.FieldType{Kind: schema.KindInt32, Encoding: schema.ZigZag}
	case protoreflect.Sfixed32Kind:
		return schema.FieldType{Kind: schema.KindInt32, Encoding: schema.Fixed}
	case protoreflect.Int64Kind:
		return schema.FieldType{Kind: schema.KindInt64}
	case protoreflect.Sint64Kind:
		return schema.FieldType{Kind: schema.KindInt64, Encoding: schema.ZigZag}
	case protoreflect.Sfixed64Kind:
		return schema.FieldType{Kind: schema.KindInt64, Encoding: schema.Fixed}
	case protoreflect.Uint32Kind:
		return schema.FieldType{Kind: schema.KindUint32}
	case protoreflect.Fixed32Kind:
		return schema.FieldType{Kind: schema.KindUint32, Encoding: schema.Fixed}
	case protoreflect.Uint64Kind:
		return schema.FieldType{Kind: schema.KindUint64}
	case protoreflect.Fixed64Kind:
		return schema.FieldType{Kind: schema.KindUint64, Encoding: schema.Fixed}
	case protoreflect.FloatKind:
		return schema.FieldType{Kind: schema.KindFloat}
	case protoreflect.DoubleKind:
		return schema.FieldType{Kind: schema.KindDouble}
	case protoreflect.StringKind:
		return schema.FieldType{Kind: schema.KindString}
	case protoreflect.BytesKind:
		return schema.FieldType{Kind: schema.KindBytes}
	case protoreflect.EnumKind:
		return schema.FieldType{Kind: schema.KindEnum, Ref: string(fd.Enum().FullName())}
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return schema.FieldType{Kind: schema.KindMessage, Ref: string(fd.Message().FullName())}
	default:
		return schema.FieldType{Kind: schema.KindInvalid}
	}
}

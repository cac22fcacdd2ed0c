// Package schema provides the descriptor model and recursion analysis for
// nodegen.
//
// This package contains the data structures and graph algorithms that turn a
// closed tagged-union protobuf schema into the variant set consumed by the
// code generators. It sits between pkg/descriptor (which loads .proto files
// and descriptor sets) and internal/codegen (which renders Go source).
//
// # Package Responsibilities
//
//  1. Schema representation (Catalog, Message, Field) - the loaded schema
//  2. Dependency graph (BuildGraph) - singular message containment edges
//  3. Boxing analysis (Analyzer) - which fields need heap indirection
//  4. Variant extraction (ExtractVariants) - the ordered arms of the union
//
// # Boxing
//
// A singular field of message type T inside message M is boxed when T
// transitively contains M. Embedding such a field by value would make the
// containing type infinitely large:
//
//	message Expr {
//	  Expr left = 1;   // Expr -> Expr: boxed
//	  Expr right = 2;  // boxed
//	}
//	message SelectStmt {
//	  Expr where_clause = 1; // Expr never reaches SelectStmt: by value
//	}
//
// Repeated and map fields never box, since their container already stores
// elements out of line.
//
// # Relationship to Other Packages
//
// The schema package is dependency-free (stdlib only). Loading a schema from
// protobuf sources lives in pkg/descriptor so that consumers of the analysis
// do not pull in the protobuf compiler.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the target type of a field. Protobuf wire variants that share a Go
// representation (sint32, sfixed32, int32) collapse to a single Kind.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindEnum
	KindMessage
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindBytes:   "bytes",
	KindEnum:    "enum",
	KindMessage: "message",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsScalar reports whether the kind carries no type reference.
func (k Kind) IsScalar() bool {
	return k != KindEnum && k != KindMessage && k != KindInvalid
}

// Repetition is the cardinality of a field.
type Repetition int

const (
	Singular Repetition = iota
	Repeated
)

func (r Repetition) String() string {
	if r == Repeated {
		return "repeated"
	}
	return "singular"
}

// Encoding is the wire form of an integer field. Kinds that share a Go type
// differ here: sint32 is ZigZag, sfixed32 is Fixed, int32 is Varint.
type Encoding int

const (
	Varint Encoding = iota
	ZigZag
	Fixed
)

func (e Encoding) String() string {
	switch e {
	case ZigZag:
		return "zigzag"
	case Fixed:
		return "fixed"
	}
	return "varint"
}

// FieldType is the target of a field: a scalar kind, or an enum or message
// referenced by fully-qualified name.
type FieldType struct {
	Kind     Kind
	Ref      string   // Fully-qualified enum or message name, empty for scalars
	Encoding Encoding // Integer kinds only
}

func (t FieldType) String() string {
	if t.Ref != "" {
		return t.Ref
	}
	return t.Kind.String()
}

// Field is a single field of a message.
type Field struct {
	Name       string // Declared name: "where_clause"
	Number     int32
	JSONName   string
	Type       FieldType // For map fields, the value type
	Repetition Repetition
	// MapKey is set for map fields. Map fields are always Repeated.
	MapKey *FieldType
}

// IsMap reports whether the field is a map.
func (f Field) IsMap() bool { return f.MapKey != nil }

// IsMessageRef reports whether the field is a singular reference to a message,
// the only kind of field that contributes a dependency edge.
func (f Field) IsMessageRef() bool {
	return f.Repetition == Singular && f.Type.Kind == KindMessage
}

// Message is a named record type with an ordered list of fields. Identity is
// the fully-qualified name without a leading dot ("sqltree.SelectStmt").
type Message struct {
	Name   string
	Fields []Field
}

// EnumValue is a single enum constant.
type EnumValue struct {
	Name   string
	Number int32
}

// Enum is a named enumeration referenced by enum-typed fields.
type Enum struct {
	Name   string
	Values []EnumValue
}

// Catalog is the immutable schema consumed by the analysis.
// Messages and Enums keep their load order, which drives every ordering in
// generated output.
type Catalog struct {
	Package  string
	Messages []Message
	Enums    []Enum

	messages map[string]int
	enums    map[string]int
}

// NewCatalog builds a catalog and its name index.
// Duplicate message or enum names are rejected.
func NewCatalog(pkg string, messages []Message, enums []Enum) (*Catalog, error) {
	c := &Catalog{
		Package:  pkg,
		Messages: messages,
		Enums:    enums,
		messages: make(map[string]int, len(messages)),
		enums:    make(map[string]int, len(enums)),
	}
	for i, m := range messages {
		if _, dup := c.messages[m.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate message %q", ErrInvalidSchema, m.Name)
		}
		c.messages[m.Name] = i
	}
	for i, e := range enums {
		if _, dup := c.enums[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate enum %q", ErrInvalidSchema, e.Name)
		}
		if _, clash := c.messages[e.Name]; clash {
			return nil, fmt.Errorf("%w: %q is both a message and an enum", ErrInvalidSchema, e.Name)
		}
		c.enums[e.Name] = i
	}
	return c, nil
}

// Message returns the message with the given fully-qualified name.
func (c *Catalog) Message(name string) (*Message, bool) {
	i, ok := c.messages[name]
	if !ok {
		return nil, false
	}
	return &c.Messages[i], true
}

// Enum returns the enum with the given fully-qualified name.
func (c *Catalog) Enum(name string) (*Enum, bool) {
	i, ok := c.enums[name]
	if !ok {
		return nil, false
	}
	return &c.Enums[i], true
}

// Resolve looks up a message by fully-qualified name, falling back to a name
// relative to the catalog package. A leading dot is ignored.
func (c *Catalog) Resolve(name string) (*Message, bool) {
	name = strings.TrimPrefix(name, ".")
	if m, ok := c.Message(name); ok {
		return m, true
	}
	if c.Package != "" {
		return c.Message(c.Package + "." + name)
	}
	return nil, false
}

// Canonical returns a stable textual rendering of the catalog. Two catalogs
// with equal Canonical output generate identical code.
func (c *Catalog) Canonical() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n", c.Package)
	for _, m := range c.Messages {
		fmt.Fprintf(&b, "message %s\n", m.Name)
		for _, f := range m.Fields {
			fmt.Fprintf(&b, "  %s %s %s = %d", f.Repetition, f.Type, f.Name, f.Number)
			if f.Type.Encoding != Varint {
				fmt.Fprintf(&b, " wire=%s", f.Type.Encoding)
			}
			if f.MapKey != nil {
				fmt.Fprintf(&b, " key=%s", f.MapKey)
				if f.MapKey.Encoding != Varint {
					fmt.Fprintf(&b, " keywire=%s", f.MapKey.Encoding)
				}
			}
			if f.JSONName != "" {
				fmt.Fprintf(&b, " json=%s", f.JSONName)
			}
			b.WriteByte('\n')
		}
	}
	for _, e := range c.Enums {
		fmt.Fprintf(&b, "enum %s\n", e.Name)
		for _, v := range e.Values {
			fmt.Fprintf(&b, "  %s = %d\n", v.Name, v.Number)
		}
	}
	return []byte(b.String())
}

package gogen

import (
	"fmt"
	"go/token"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/pkg/schema"
)

// fileData is the template input for one generated file.
type fileData struct {
	Version     string
	Source      string
	Fingerprint string
	Package     string

	StdImports []string
	// ModuleImports are rendered specs of the runtime and protobuf packages.
	ModuleImports []string

	EmitStructs bool
	EmitNodes   bool
	EmitCodec   bool

	Root     rootData
	Variants []variantData
	Enums    []enumData
	Messages []messageData
	// Walkers are the messages that can contain nodes and get an
	// appendNodes method.
	Walkers []messageData
}

type rootData struct {
	Name      string // Fully-qualified root message
	Owned     string
	Ref       string
	Mut       string
	Kind      string
	NewMut    string
	WalkMut   string
	CloneFunc string
	UsesClone bool

	Codec      string
	MergeFunc  string
	AppendFunc string
	StmtFunc   string
}

type variantData struct {
	Index        int
	Tag          string
	Field        string
	Number       int32
	PayloadIdent string
	Boxed        bool
	KindConst    string
	Arm          string
	RefArm       string
	ValueType    string
	HasChildren  bool
}

type enumData struct {
	Name   string
	Ident  string
	Values []schema.EnumValueInfo
}

type messageData struct {
	Name   string
	Ident  string
	Fields []fieldData
	Clone  []string
	Nodes  []string

	// Decode holds the field-loop cases of unmarshalWire, Encode the
	// statements of appendWire.
	Decode  []string
	Encode  []string
	Entries []entryData
}

type fieldData struct {
	Ident   string
	Type    string
	Comment string
}

// builder resolves an analysis into template data.
type builder struct {
	an   *schema.Analysis
	root rootData
	// nodeful holds messages that can transitively contain a node.
	nodeful map[string]bool

	// Imports needed by the struct, node and codec bodies.
	structImports map[string]bool
	nodeImports   map[string]bool
	codecImports  map[string]bool
}

func newBuilder(an *schema.Analysis) *builder {
	owned, ref, mut, kind := an.UnionIdents()
	b := &builder{
		an: an,
		root: rootData{
			Name:      an.Root.Name,
			Owned:     owned,
			Ref:       ref,
			Mut:       mut,
			Kind:      kind,
			NewMut:    "New" + mut,
			WalkMut:   "Walk" + mut,
			CloneFunc: "clone" + owned,

			Codec:      owned + "Codec",
			MergeFunc:  "merge" + owned,
			AppendFunc: "append" + owned,
			StmtFunc:   "unmarshal" + owned + "Stmt",
		},
		structImports: make(map[string]bool),
		nodeImports:   map[string]bool{"context": true, "fmt": true, "unsafe": true},
		codecImports:  map[string]bool{"fmt": true},
	}
	b.nodeful = b.nodefulMessages()
	return b
}

// nodefulMessages computes, to a fixed point, the messages whose fields can
// hold a node: a union field, a payload message, or another such message.
func (b *builder) nodefulMessages() map[string]bool {
	out := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, m := range b.an.Messages {
			if out[m.Name] {
				continue
			}
			for _, f := range m.Fields {
				if b.fieldHoldsNodes(f, out) {
					out[m.Name] = true
					changed = true
					break
				}
			}
		}
	}
	return out
}

func (b *builder) fieldHoldsNodes(f schema.FieldInfo, nodeful map[string]bool) bool {
	switch {
	case f.Union:
		return true
	case f.Type.Kind != schema.KindMessage || f.IsMap():
		return false
	case f.Variant != nil:
		return true
	default:
		return nodeful[f.Type.Ref]
	}
}

func (b *builder) variants() []variantData {
	out := make([]variantData, 0, len(b.an.Variants))
	for i, v := range b.an.Variants {
		vd := variantData{
			Index:        i + 1,
			Tag:          v.Tag,
			Field:        v.Field,
			Number:       v.Number,
			PayloadIdent: v.PayloadIdent,
			Boxed:        v.Boxed,
			KindConst:    b.root.Kind + v.Tag,
			Arm:          b.root.Owned + v.Tag,
			RefArm:       b.root.Ref + v.Tag,
			ValueType:    v.PayloadIdent,
			HasChildren:  b.nodeful[v.Payload],
		}
		if v.Boxed {
			vd.ValueType = "*" + v.PayloadIdent
		}
		out = append(out, vd)
	}
	return out
}

func (b *builder) enums() []enumData {
	out := make([]enumData, 0, len(b.an.Enums))
	for _, e := range b.an.Enums {
		out = append(out, enumData{Name: e.Name, Ident: e.Ident, Values: e.Values})
	}
	return out
}

func (b *builder) messages() []messageData {
	out := make([]messageData, 0, len(b.an.Messages))
	for _, m := range b.an.Messages {
		md := messageData{Name: m.Name, Ident: m.Ident}
		for _, f := range m.Fields {
			md.Fields = append(md.Fields, fieldData{
				Ident:   f.Ident,
				Type:    b.goType(f),
				Comment: fieldComment(f),
			})
			if stmt := b.cloneStmt(f); stmt != "" {
				md.Clone = append(md.Clone, stmt)
			}
			if stmt := b.nodesStmt(f); stmt != "" {
				md.Nodes = append(md.Nodes, stmt)
			}
			md.Decode = append(md.Decode, b.decodeCases(f, "x."+f.Ident)...)
			md.Encode = append(md.Encode, b.encodeStmt(f, "x."+f.Ident))
			if f.IsMap() {
				md.Entries = append(md.Entries, b.entry(f))
			}
		}
		out = append(out, md)
	}
	return out
}

func fieldComment(f schema.FieldInfo) string {
	c := fmt.Sprintf("%s = %d", f.Name, f.Number)
	if f.Boxed && !f.Union {
		c += ", boxed"
	}
	return c
}

var scalarTypes = map[schema.Kind]string{
	schema.KindBool:   "bool",
	schema.KindInt32:  "int32",
	schema.KindInt64:  "int64",
	schema.KindUint32: "uint32",
	schema.KindUint64: "uint64",
	schema.KindFloat:  "float32",
	schema.KindDouble: "float64",
	schema.KindString: "string",
	schema.KindBytes:  "[]byte",
}

// elemType is the Go type of one value of the field, ignoring repetition.
func (b *builder) elemType(f schema.FieldInfo) string {
	switch {
	case f.Union:
		return b.root.Owned
	case f.Type.Kind == schema.KindMessage, f.Type.Kind == schema.KindEnum:
		return f.TargetIdent
	default:
		return scalarTypes[f.Type.Kind]
	}
}

func (b *builder) goType(f schema.FieldInfo) string {
	elem := b.elemType(f)
	switch {
	case f.IsMap():
		return fmt.Sprintf("map[%s]%s", scalarTypes[f.MapKey.Kind], elem)
	case f.Repetition == schema.Repeated:
		return "[]" + elem
	case f.Boxed && !f.Union:
		return "*" + elem
	default:
		return elem
	}
}

// valueClass groups element types by how they are deep-copied.
type valueClass int

const (
	classPlain valueClass = iota // copied by assignment
	classBytes
	classUnion
	classMessage
)

func classOf(f schema.FieldInfo) valueClass {
	switch {
	case f.Union:
		return classUnion
	case f.Type.Kind == schema.KindMessage:
		return classMessage
	case f.Type.Kind == schema.KindBytes:
		return classBytes
	default:
		return classPlain
	}
}

// cloneExpr deep-copies the element expression v.
func (b *builder) cloneExpr(class valueClass, v string) string {
	switch class {
	case classBytes:
		b.structImports["slices"] = true
		return "slices.Clone(" + v + ")"
	case classUnion:
		b.root.UsesClone = true
		return b.root.CloneFunc + "(" + v + ")"
	case classMessage:
		return "*" + v + ".Clone()"
	default:
		return v
	}
}

// cloneStmt returns the statement fixing up out.F after the shallow copy,
// or "" when assignment already copied the field.
func (b *builder) cloneStmt(f schema.FieldInfo) string {
	dst, src := "out."+f.Ident, "x."+f.Ident
	class := classOf(f)

	switch {
	case f.IsMap():
		if class == classPlain {
			b.structImports["maps"] = true
			return fmt.Sprintf("%s = maps.Clone(%s)", dst, src)
		}
		return fmt.Sprintf("if %[2]s != nil {\n%[1]s = make(%[3]s, len(%[2]s))\nfor k, v := range %[2]s {\n%[1]s[k] = %[4]s\n}\n}",
			dst, src, b.goType(f), b.cloneExpr(class, "v"))

	case f.Repetition == schema.Repeated:
		switch class {
		case classPlain:
			b.structImports["slices"] = true
			return fmt.Sprintf("%s = slices.Clone(%s)", dst, src)
		case classMessage:
			return fmt.Sprintf("if %[2]s != nil {\n%[1]s = make(%[3]s, len(%[2]s))\nfor i := range %[2]s {\n%[1]s[i] = %[4]s\n}\n}",
				dst, src, b.goType(f), b.cloneExpr(class, src+"[i]"))
		default:
			return fmt.Sprintf("if %[2]s != nil {\n%[1]s = make(%[3]s, len(%[2]s))\nfor i, v := range %[2]s {\n%[1]s[i] = %[4]s\n}\n}",
				dst, src, b.goType(f), b.cloneExpr(class, "v"))
		}

	case class == classPlain:
		return ""
	case class == classMessage && f.Boxed:
		return fmt.Sprintf("%s = %s.Clone()", dst, src)
	default:
		return fmt.Sprintf("%s = %s", dst, b.cloneExpr(class, src))
	}
}

// nodesStmt returns the statement appending the accessors of nodes held by
// field f to out, or "" when the field cannot hold one. Map values of message
// type are not addressable and are skipped.
func (b *builder) nodesStmt(f schema.FieldInfo) string {
	src := "x." + f.Ident

	switch {
	case f.Union && f.IsMap():
		if f.MapKey.Kind == schema.KindBool {
			return fmt.Sprintf("for _, k := range []bool{false, true} {\nif v, ok := %s[k]; ok && v != nil {\nout = append(out, v.AsMut())\n}\n}", src)
		}
		b.nodeImports["slices"], b.nodeImports["maps"] = true, true
		return fmt.Sprintf("for _, k := range slices.Sorted(maps.Keys(%[1]s)) {\nif v := %[1]s[k]; v != nil {\nout = append(out, v.AsMut())\n}\n}", src)
	case f.Union && f.Repetition == schema.Repeated:
		return fmt.Sprintf("for _, v := range %s {\nif v != nil {\nout = append(out, v.AsMut())\n}\n}", src)
	case f.Union:
		return fmt.Sprintf("if %[1]s != nil {\nout = append(out, %[1]s.AsMut())\n}", src)
	case f.Type.Kind != schema.KindMessage || f.IsMap():
		return ""
	}

	var call string
	switch {
	case f.Variant != nil:
		call = "out = append(out, %s.AsMut())"
	case b.nodeful[f.Type.Ref]:
		call = "out = %s.appendNodes(out)"
	default:
		return ""
	}

	switch {
	case f.Repetition == schema.Repeated:
		return fmt.Sprintf("for i := range %s {\n%s\n}", src, fmt.Sprintf(call, src+"[i]"))
	case f.Boxed:
		return fmt.Sprintf("if %s != nil {\n%s\n}", src, fmt.Sprintf(call, src))
	default:
		return fmt.Sprintf(call, src)
	}
}

// packageName derives a Go package name from a protobuf package:
// "pg_query.v1" becomes "pgquery", "" becomes "nodes".
func packageName(protoPkg string) string {
	last := protoPkg
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		// Skip a trailing version element such as "v1".
		if rest := last[:i]; isVersion(last[i+1:]) && rest != "" {
			last = rest
		}
		if j := strings.LastIndexByte(last, '.'); j >= 0 {
			last = last[j+1:]
		}
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(last) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || !token.IsIdentifier(name) || token.IsKeyword(name) {
		return "nodes"
	}
	return name
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// runtimeImport returns the import spec for the runtime package, aliased to
// node when the path ends in another name.
func runtimeImport(importPath string) string {
	if importPath == "" {
		importPath = codegen.DefaultRuntimeImport
	}
	if path.Base(importPath) == "node" {
		return fmt.Sprintf("%q", importPath)
	}
	return fmt.Sprintf("node %q", importPath)
}

func sortedImports(sets ...map[string]bool) []string {
	merged := make(map[string]bool)
	for _, set := range sets {
		for p, ok := range set {
			if ok {
				merged[p] = true
			}
		}
	}
	out := make([]string, 0, len(merged))
	for p := range merged {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

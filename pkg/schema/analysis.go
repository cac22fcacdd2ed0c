package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Analysis is the fully resolved input of the code generators: the variant
// set, every payload struct with per-field boxing decisions, and every enum.
type Analysis struct {
	Catalog  *Catalog
	Analyzer *Analyzer

	Root      *Message
	RootIdent string
	Variants  []Variant
	Messages  []MessageInfo
	Enums     []EnumInfo

	// Skipped lists root fields that are not variants ("Node.location: int32").
	Skipped []string

	byPayload map[string]int
}

// MessageInfo is a payload struct to generate. The root message is not
// included; it becomes the union itself.
type MessageInfo struct {
	Name   string
	Ident  string
	Fields []FieldInfo
	// Variant is set when this message is the payload of a union arm.
	Variant *Variant
}

// FieldInfo is a field with its resolved identifier and boxing decision.
type FieldInfo struct {
	Field
	Ident string
	// Boxed is true for singular message fields whose target transitively
	// contains the declaring message.
	Boxed bool
	// Union is true when the field's target is the root message, rendered as
	// the owned union rather than a struct.
	Union bool
	// TargetIdent is the generated identifier of the referenced message or
	// enum, empty for scalars.
	TargetIdent string
	// Variant is set when the target message is a union payload.
	Variant *Variant
}

// EnumInfo is an enum to generate.
type EnumInfo struct {
	Name   string
	Ident  string
	Values []EnumValueInfo
}

// EnumValueInfo is an enum constant. Alias marks a value whose number was
// already used by an earlier constant of the same enum.
type EnumValueInfo struct {
	Name   string
	Ident  string
	Number int32
	Alias  bool
}

// BoxedField describes one boxed field and the cycle that forces it.
type BoxedField struct {
	Message string   // Declaring message (the root for variant arms)
	Field   string   // Field name
	Target  string   // Referenced message
	Cycle   []string // Message -> Target -> ... -> Message
}

// reservedMethods are generated on every payload struct.
var reservedMethods = []string{"Clone", "AsRef", "AsMut"}

// accessorMethods are generated on the exclusive accessor, next to one typed
// getter per variant tag.
var accessorMethods = []string{"Kind", "IsValid", "ToOwned", "Children", "Deparse"}

// Analyze builds the graph, extracts the variants of root and resolves every
// payload struct and enum. It fails on the first schema error; no partial
// analysis is returned.
func Analyze(c *Catalog, root string) (*Analysis, error) {
	g, err := BuildGraph(c)
	if err != nil {
		return nil, err
	}
	a := NewAnalyzer(g)

	variants, err := ExtractVariants(c, a, root)
	if err != nil {
		return nil, err
	}
	rootMsg, _ := c.Resolve(root)

	rootIdent, err := Ident(c.Package, rootMsg.Name)
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", rootMsg.Name, err)
	}

	an := &Analysis{
		Catalog:   c,
		Analyzer:  a,
		Root:      rootMsg,
		RootIdent: rootIdent,
		Variants:  variants,
		byPayload: make(map[string]int, len(variants)),
	}
	for i, v := range variants {
		if v.Payload == rootMsg.Name {
			return nil, fmt.Errorf("%w: %s cannot be a payload of its own union", ErrInvalidSchema, rootMsg.Name)
		}
		an.byPayload[v.Payload] = i
	}
	for _, f := range rootMsg.Fields {
		if !isVariantField(f) {
			an.Skipped = append(an.Skipped, fmt.Sprintf("%s.%s: %s %s", rootMsg.Name, f.Name, f.Repetition, f.Type))
		}
	}

	for _, e := range c.Enums {
		info, err := resolveEnum(c, e)
		if err != nil {
			return nil, err
		}
		an.Enums = append(an.Enums, info)
	}

	for _, m := range c.Messages {
		if m.Name == rootMsg.Name {
			continue
		}
		info, err := an.resolveMessage(m)
		if err != nil {
			return nil, err
		}
		an.Messages = append(an.Messages, info)
	}

	if err := an.checkCollisions(); err != nil {
		return nil, err
	}
	return an, nil
}

// VariantFor returns the variant whose payload is the given message.
func (an *Analysis) VariantFor(payload string) (*Variant, bool) {
	i, ok := an.byPayload[payload]
	if !ok {
		return nil, false
	}
	return &an.Variants[i], true
}

func (an *Analysis) resolveMessage(m Message) (MessageInfo, error) {
	ident, err := Ident(an.Catalog.Package, m.Name)
	if err != nil {
		return MessageInfo{}, fmt.Errorf("message %s: %w", m.Name, err)
	}
	info := MessageInfo{Name: m.Name, Ident: ident}
	if v, ok := an.VariantFor(m.Name); ok {
		info.Variant = v
	}

	fieldIdents := make(map[string]string, len(m.Fields))
	for _, name := range reservedMethods {
		fieldIdents[name] = "generated method " + name
	}

	for _, f := range m.Fields {
		fi := FieldInfo{Field: f}
		fi.Ident, err = FieldIdent(f.Name)
		if err != nil {
			return MessageInfo{}, fmt.Errorf("field %s.%s: %w", m.Name, f.Name, err)
		}
		if other, dup := fieldIdents[fi.Ident]; dup {
			return MessageInfo{}, fmt.Errorf("%w: %s.%s and %s both become field %s",
				ErrNameCollision, m.Name, f.Name, other, fi.Ident)
		}
		fieldIdents[fi.Ident] = "field " + f.Name

		switch {
		case f.Type.Kind == KindMessage && f.Type.Ref == an.Root.Name:
			fi.Union = true
			fi.TargetIdent = an.RootIdent
		case f.Type.Kind == KindMessage || f.Type.Kind == KindEnum:
			fi.TargetIdent, err = Ident(an.Catalog.Package, f.Type.Ref)
			if err != nil {
				return MessageInfo{}, fmt.Errorf("field %s.%s: %w", m.Name, f.Name, err)
			}
		}
		if f.Type.Kind == KindMessage {
			if v, ok := an.VariantFor(f.Type.Ref); ok {
				fi.Variant = v
			}
		}
		fi.Boxed = an.Analyzer.FieldBoxed(m.Name, f)
		info.Fields = append(info.Fields, fi)
	}
	return info, nil
}

func resolveEnum(c *Catalog, e Enum) (EnumInfo, error) {
	ident, err := Ident(c.Package, e.Name)
	if err != nil {
		return EnumInfo{}, fmt.Errorf("enum %s: %w", e.Name, err)
	}
	info := EnumInfo{Name: e.Name, Ident: ident}
	seen := make(map[int32]bool, len(e.Values))
	for _, v := range e.Values {
		if v.Name == "" {
			return EnumInfo{}, fmt.Errorf("%w: empty value name in enum %s", ErrInvalidName, e.Name)
		}
		info.Values = append(info.Values, EnumValueInfo{
			Name:   v.Name,
			Ident:  ident + "_" + v.Name,
			Number: v.Number,
			Alias:  seen[v.Number],
		})
		seen[v.Number] = true
	}
	return info, nil
}

// UnionIdents returns the identifiers generated for the union and its views.
func (an *Analysis) UnionIdents() (owned, ref, mut, kind string) {
	return an.RootIdent, an.RootIdent + "Ref", an.RootIdent + "Mut", an.RootIdent + "Kind"
}

// checkCollisions rejects any two sources that produce the same top-level
// identifier in the generated package.
func (an *Analysis) checkCollisions() error {
	owned, ref, mut, kind := an.UnionIdents()
	idents := make(map[string]string)
	claim := func(id, source string) error {
		if other, dup := idents[id]; dup {
			return fmt.Errorf("%w: %s and %s both generate %s", ErrNameCollision, other, source, id)
		}
		idents[id] = source
		return nil
	}

	rootSrc := "root " + an.Root.Name
	for _, id := range []string{owned, ref, mut, kind, "New" + mut, "Walk" + mut, owned + "Codec"} {
		if err := claim(id, rootSrc); err != nil {
			return err
		}
	}
	for _, v := range an.Variants {
		src := "variant " + v.Field
		if slices.Contains(accessorMethods, v.Tag) {
			return fmt.Errorf("%w: %s and the generated method %s.%s", ErrNameCollision, src, mut, v.Tag)
		}
		for _, id := range []string{owned + v.Tag, ref + v.Tag, kind + v.Tag} {
			if err := claim(id, src); err != nil {
				return err
			}
		}
	}
	for _, m := range an.Messages {
		if err := claim(m.Ident, "message "+m.Name); err != nil {
			return err
		}
	}
	for _, e := range an.Enums {
		if err := claim(e.Ident, "enum "+e.Name); err != nil {
			return err
		}
		for _, v := range e.Values {
			if err := claim(v.Ident, "enum value "+e.Name+"."+v.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// BoxedFields lists every boxed field, variant arms first, then payload
// struct fields in catalog order.
func (an *Analysis) BoxedFields() []BoxedField {
	var out []BoxedField
	for _, v := range an.Variants {
		if v.Boxed {
			out = append(out, an.boxedField(an.Root.Name, v.Field, v.Payload))
		}
	}
	for _, m := range an.Messages {
		for _, f := range m.Fields {
			if f.Boxed {
				out = append(out, an.boxedField(m.Name, f.Name, f.Type.Ref))
			}
		}
	}
	return out
}

// String renders the field and its cycle: "sqltree.Expr.left (sqltree.Expr → sqltree.Expr)".
func (b BoxedField) String() string {
	return fmt.Sprintf("%s.%s (%s)", b.Message, b.Field, strings.Join(b.Cycle, " → "))
}

func (an *Analysis) boxedField(container, field, target string) BoxedField {
	cycle := append([]string{container}, an.Analyzer.Path(target, container)...)
	return BoxedField{Message: container, Field: field, Target: target, Cycle: cycle}
}

// RecursiveMessages returns the messages that lie on at least one
// containment cycle, sorted by name.
func (an *Analysis) RecursiveMessages() []string {
	var out []string
	for _, name := range an.Analyzer.Graph().Nodes() {
		for _, dep := range an.Analyzer.Graph().Edges(name) {
			if an.Analyzer.MustIndirect(dep, name) {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

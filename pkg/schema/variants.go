package schema

import "fmt"

// Variant is one arm of the generated tagged union, derived from one field
// of the root message.
type Variant struct {
	Tag          string // Arm identifier derived from the field name: "SelectStmt"
	Field        string // Declared root field name: "select_stmt"
	Number       int32  // Root field number
	Payload      string // Fully-qualified payload message: "sqltree.SelectStmt"
	PayloadIdent string // Generated payload type identifier: "SelectStmt"
	// Boxed is true when the payload transitively contains the root message,
	// so the owned arm stores it behind a pointer.
	Boxed bool
}

// isVariantField reports whether a root field becomes a variant. Only
// singular message references carry a payload; scalar, enum, repeated and
// map fields on the root are not arms.
func isVariantField(f Field) bool {
	return f.IsMessageRef()
}

// ExtractVariants derives the ordered variant list from the root message.
//
// Variants follow the declaration order of the root's fields. Tags come from
// FieldIdent(field name); payload identifiers come from Ident(message name).
// Extraction is deterministic: an unchanged catalog yields identical names in
// identical order.
//
// Returns ErrMissingRoot if root is not in the catalog, ErrNoVariants if it
// has no message-typed singular field, ErrDuplicatePayload if two fields share
// a payload type and ErrNameCollision if two tags normalize to the same
// identifier.
func ExtractVariants(c *Catalog, a *Analyzer, root string) ([]Variant, error) {
	rootMsg, ok := c.Resolve(root)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingRoot, root)
	}

	var variants []Variant
	tags := make(map[string]string)     // tag -> field name
	payloads := make(map[string]string) // payload -> field name

	for _, f := range rootMsg.Fields {
		if !isVariantField(f) {
			continue
		}

		tag, err := FieldIdent(f.Name)
		if err != nil {
			return nil, fmt.Errorf("variant %s.%s: %w", rootMsg.Name, f.Name, err)
		}
		if other, dup := tags[tag]; dup {
			return nil, fmt.Errorf("%w: fields %q and %q of %s both become variant %s",
				ErrNameCollision, other, f.Name, rootMsg.Name, tag)
		}
		tags[tag] = f.Name

		if other, dup := payloads[f.Type.Ref]; dup {
			return nil, fmt.Errorf("%w: %s is the payload of both %q and %q",
				ErrDuplicatePayload, f.Type.Ref, other, f.Name)
		}
		payloads[f.Type.Ref] = f.Name

		payloadIdent, err := Ident(c.Package, f.Type.Ref)
		if err != nil {
			return nil, fmt.Errorf("variant %s.%s: %w", rootMsg.Name, f.Name, err)
		}

		variants = append(variants, Variant{
			Tag:          tag,
			Field:        f.Name,
			Number:       f.Number,
			Payload:      f.Type.Ref,
			PayloadIdent: payloadIdent,
			Boxed:        a.FieldBoxed(rootMsg.Name, f),
		})
	}

	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoVariants, rootMsg.Name)
	}
	return variants, nil
}

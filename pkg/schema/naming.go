package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// Pascal converts a schema name to a PascalCase identifier.
//
// Words are split on '_', '-' and ' ', on lower-to-upper transitions, on
// transitions between letters and digits, and before the last capital of an
// acronym that is followed by a lower-case letter. Each word is then
// capitalized with its remainder lower-cased:
//
//	select_stmt      -> SelectStmt
//	ctesearch_clause -> CtesearchClause
//	CTESearchClause  -> CteSearchClause
//	A_Expr           -> AExpr
//	int8_col         -> Int8Col
func Pascal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, w := range splitWords(s) {
		for i, r := range w {
			if i == 0 {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
		}
	}
	return b.String()
}

func splitWords(s string) []string {
	var words []string
	rs := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(rs[start:end]))
		}
		start = -1
	}

	for i, r := range rs {
		if r == '_' || r == '-' || r == ' ' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := rs[i-1]
		var next rune
		if i+1 < len(rs) {
			next = rs[i+1]
		}
		if wordBoundary(prev, r, next) {
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return words
}

// wordBoundary reports whether a new word starts at cur.
func wordBoundary(prev, cur, next rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(cur):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(cur):
		return true
	case unicode.IsDigit(prev) && unicode.IsLetter(cur):
		return true
	case unicode.IsUpper(prev) && unicode.IsUpper(cur) && unicode.IsLower(next):
		return true
	}
	return false
}

// Ident returns the generated type identifier for a fully-qualified schema
// name. The catalog package prefix is dropped and every remaining dotted
// segment is converted with Pascal; nested names are joined with '_' the way
// protoc-gen-go names nested messages:
//
//	sqltree.SelectStmt        -> SelectStmt
//	sqltree.Outer.inner_thing -> Outer_InnerThing
func Ident(pkg, fullName string) (string, error) {
	rel := strings.TrimPrefix(fullName, ".")
	if pkg != "" {
		rel = strings.TrimPrefix(rel, pkg+".")
	}
	segs := strings.Split(rel, ".")
	for i, seg := range segs {
		segs[i] = Pascal(seg)
		if err := checkIdent(segs[i], seg); err != nil {
			return "", err
		}
	}
	return strings.Join(segs, "_"), nil
}

// FieldIdent returns the generated identifier for a field or variant tag.
func FieldIdent(name string) (string, error) {
	id := Pascal(name)
	if err := checkIdent(id, name); err != nil {
		return "", err
	}
	return id, nil
}

func checkIdent(id, source string) error {
	if id == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, source)
	}
	r := []rune(id)[0]
	if !unicode.IsLetter(r) {
		return fmt.Errorf("%w: %q becomes %q", ErrInvalidName, source, id)
	}
	return nil
}

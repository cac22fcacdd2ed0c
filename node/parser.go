package node

import (
	"context"
	"strings"
)

// Result is a parsed tree: its top-level statements and the warnings the
// engine reported.
type Result[T any] struct {
	Stmts    []T
	Warnings []string
}

// Root returns the only statement of the tree. ok is false unless the tree
// holds exactly one statement.
func (r *Result[T]) Root() (root T, ok bool) {
	if r == nil || len(r.Stmts) != 1 {
		return root, false
	}
	return r.Stmts[0], true
}

// Parser parses and deparses typed trees through an Engine.
// A Parser is safe for concurrent use when its Engine and Cache are.
type Parser[T any] struct {
	engine Engine
	codec  Codec[T]
	cache  Cache
}

// Option configures a Parser.
type Option func(*parserOptions)

type parserOptions struct {
	cache Cache
}

// WithCache caches engine output by input text. Only the serialized tree is
// cached; every Parse decodes a fresh tree, so callers may mutate results.
func WithCache(c Cache) Option {
	return func(o *parserOptions) {
		o.cache = c
	}
}

// NewParser returns a parser over engine using codec to decode trees.
func NewParser[T any](engine Engine, codec Codec[T], opts ...Option) *Parser[T] {
	var o parserOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser[T]{engine: engine, codec: codec, cache: o.cache}
}

// Parse parses sql into typed statements.
//
// Input containing a NUL byte is rejected with KindInput before the engine is
// called. Engine and decoding failures are returned as *Error.
func (p *Parser[T]) Parse(ctx context.Context, sql string) (*Result[T], error) {
	if strings.IndexByte(sql, 0) >= 0 {
		return nil, &Error{Kind: KindInput, Message: "input contains a NUL byte"}
	}

	tree, stderr, err := p.parseTree(ctx, sql)
	warnings := Warnings(stderr)
	if err != nil {
		return nil, wrap(KindParse, err, warnings)
	}

	stmts, err := p.codec.Decode(tree)
	if err != nil {
		return nil, wrap(KindDecode, err, warnings)
	}
	return &Result[T]{Stmts: stmts, Warnings: warnings}, nil
}

func (p *Parser[T]) parseTree(ctx context.Context, sql string) ([]byte, string, error) {
	if p.cache != nil {
		if tree, stderr, err, ok := p.cache.Get(sql); ok {
			return tree, stderr, err
		}
	}
	tree, stderr, err := p.engine.Parse(ctx, sql)
	if p.cache != nil {
		p.cache.Set(sql, tree, stderr, err)
	}
	return tree, stderr, err
}

// Deparse renders stmts back to source text, stamping the engine version
// into the serialized tree.
func (p *Parser[T]) Deparse(ctx context.Context, stmts []T) (string, error) {
	tree, err := p.codec.Encode(p.engine.Version(), stmts)
	if err != nil {
		return "", wrap(KindEncode, err, nil)
	}
	sql, err := p.engine.Deparse(ctx, tree)
	if err != nil {
		return "", wrap(KindDeparse, err, nil)
	}
	return sql, nil
}

// Warnings extracts the engine's warning lines from its diagnostic output:
// lines starting with "WARNING", trimmed, in order.
func Warnings(stderr string) []string {
	if stderr == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, "WARNING") {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

// Ensure Parser implements Deparser.
var _ Deparser[any] = (*Parser[any])(nil)

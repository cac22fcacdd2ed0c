// Package node is the runtime support imported by nodegen-generated code.
//
// # Module Structure
//
// This package has zero external dependencies (stdlib only). Generated
// packages import it for the accessor error and the parse/deparse boundary;
// applications import the generated package and, when they talk to a parse
// engine, this one.
//
// # Three Representations
//
// Every generated union has three forms:
//
//	var stmt sqltree.Node = &sqltree.NodeSelectStmt{Value: &sqltree.SelectStmt{}}
//	ref := stmt.AsRef()          // borrowed, read-only view
//	mut := stmt.AsMut()          // exclusive accessor, may mutate in place
//	owned, err := mut.ToOwned()  // deep copy, fails with ErrInvalidAccessor
//
// Owned to borrowed and owned to exclusive never fail. Borrowed to owned never
// fails. Exclusive to owned fails only for an accessor built from a nil
// pointer, which is reported as ErrInvalidAccessor rather than a zero value.
//
// # Parse and Deparse
//
// The parse engine is an external collaborator. Parser adapts an Engine
// (text to serialized tree and back) and a generated Codec (serialized tree to
// typed statements and back) into typed calls:
//
//	p := node.NewParser[sqltree.Node](engine, sqltree.NodeCodec{})
//	res, err := p.Parse(ctx, "SELECT 1")
//	root, ok := res.Root()
//
// Engine failures are passed through as *Error values carrying the engine's
// message; nothing is retried.
package node

import "context"

// Engine is the native parse/deparse service.
//
// Parse returns the serialized parse tree together with any diagnostic output
// the engine wrote. Deparse renders a serialized tree back to source text.
// Version is stamped into trees handed to Deparse.
type Engine interface {
	Parse(ctx context.Context, sql string) (tree []byte, stderr string, err error)
	Deparse(ctx context.Context, tree []byte) (string, error)
	Version() int32
}

// Codec converts between serialized trees and typed top-level statements.
// Generated packages provide one for their owned union type, named after it
// (NodeCodec for Node), reading the protobuf parse result the engine emits.
type Codec[T any] interface {
	Decode(tree []byte) ([]T, error)
	Encode(version int32, stmts []T) ([]byte, error)
}

// Deparser renders statements back to source text. Exclusive accessors use it
// to deparse a single node wrapped as the sole statement of a tree.
type Deparser[T any] interface {
	Deparse(ctx context.Context, stmts []T) (string, error)
}

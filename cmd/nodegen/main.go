// Package main provides the nodegen CLI, which turns a protobuf schema into
// Go tree types.
//
// The CLI supports:
//   - generate: Write the owned, borrowed and exclusive representations of a union
//   - analyze: Show the variants, boxed fields and the cycles forcing them
//   - validate: Check that a schema loads and its root can be generated
//   - check: Report committed generated files that drifted from the schema
//   - init: Write a nodegen.yaml
//   - config show: Print the effective configuration
//
// Usage:
//
//	nodegen [flags] <command>
package main

func main() {
	Execute()
}

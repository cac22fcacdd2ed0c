// Package manifest implements the "manifest" target: a nodes.yaml record of
// the analysis (variants, boxed fields and their cycles) meant to be
// committed next to generated code so schema changes show up in review.
package manifest

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/pkg/schema"
)

// File is the manifest file name.
const File = "nodes.yaml"

func init() {
	codegen.Register(&Generator{})
}

// Manifest is the serialized analysis.
type Manifest struct {
	Generator   string        `json:"generator"`
	Source      string        `json:"source,omitempty"`
	Fingerprint string        `json:"fingerprint"`
	Root        string        `json:"root"`
	Variants    []Variant     `json:"variants"`
	BoxedFields []BoxedField  `json:"boxed_fields,omitempty"`
	Recursive   []string      `json:"recursive,omitempty"`
	Skipped     []string      `json:"skipped,omitempty"`
	Enums       []string      `json:"enums,omitempty"`
	Messages    []MessageStat `json:"messages"`
}

// Variant is one union arm.
type Variant struct {
	Tag     string `json:"tag"`
	Field   string `json:"field"`
	Number  int32  `json:"number"`
	Payload string `json:"payload"`
	Boxed   bool   `json:"boxed"`
}

// BoxedField is a boxed field and the cycle forcing it.
type BoxedField struct {
	Message string   `json:"message"`
	Field   string   `json:"field"`
	Target  string   `json:"target"`
	Cycle   []string `json:"cycle"`
}

// MessageStat summarizes one generated struct.
type MessageStat struct {
	Name   string `json:"name"`
	Ident  string `json:"ident"`
	Fields int    `json:"fields"`
	Boxed  int    `json:"boxed,omitempty"`
}

// Generator implements codegen.Generator for the manifest.
type Generator struct{}

// Name returns "manifest" as the target identifier.
func (g *Generator) Name() string { return "manifest" }

// DefaultConfig returns the default manifest configuration.
func (g *Generator) DefaultConfig() *codegen.Config {
	return &codegen.Config{Version: "dev", Options: make(map[string]any)}
}

// Build converts an analysis into a Manifest.
func Build(an *schema.Analysis, cfg *codegen.Config) *Manifest {
	m := &Manifest{
		Generator:   "nodegen " + cfg.Version,
		Source:      cfg.Source,
		Fingerprint: "blake3:" + codegen.Fingerprint(an),
		Root:        an.Root.Name,
		Recursive:   an.RecursiveMessages(),
		Skipped:     an.Skipped,
	}
	for _, v := range an.Variants {
		m.Variants = append(m.Variants, Variant{
			Tag:     v.Tag,
			Field:   v.Field,
			Number:  v.Number,
			Payload: v.Payload,
			Boxed:   v.Boxed,
		})
	}
	for _, b := range an.BoxedFields() {
		m.BoxedFields = append(m.BoxedFields, BoxedField(b))
	}
	for _, e := range an.Enums {
		m.Enums = append(m.Enums, e.Name)
	}
	for _, msg := range an.Messages {
		stat := MessageStat{Name: msg.Name, Ident: msg.Ident, Fields: len(msg.Fields)}
		for _, f := range msg.Fields {
			// Union fields are already an interface; they are not stored behind a pointer.
			if f.Boxed && !f.Union {
				stat.Boxed++
			}
		}
		m.Messages = append(m.Messages, stat)
	}
	return m
}

// Generate renders nodes.yaml.
func (g *Generator) Generate(an *schema.Analysis, cfg *codegen.Config) (map[string][]byte, error) {
	cfg = codegen.Resolve(cfg, g.DefaultConfig())

	data, err := yaml.Marshal(Build(an, cfg))
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return map[string][]byte{File: data}, nil
}

package gogen

import (
	"fmt"
	"strings"

	"github.com/pthm/nodegen/pkg/schema"
)

const protowireImport = "google.golang.org/protobuf/encoding/protowire"

// entryData is a map field whose entries are decoded by a dedicated method.
type entryData struct {
	Func    string
	Field   string
	Map     string
	KeyType string
	ValType string
	Decode  []string
}

// wireScalar describes how one scalar value crosses the wire. Format verbs
// in decode refer to the consumed raw value; in append, %[1]s is the buffer
// and %[2]s the value.
type wireScalar struct {
	wire    string
	raw     string
	consume string
	decode  string
	append  string
	nonZero string
}

func (b *builder) scalarWire(t schema.FieldType, ident string) wireScalar {
	varint := wireScalar{
		wire:    "protowire.VarintType",
		raw:     "uint64",
		consume: "protowire.ConsumeVarint",
		append:  "protowire.AppendVarint(%[1]s, uint64(%[2]s))",
		nonZero: "%s != 0",
	}
	fixed32 := wireScalar{
		wire:    "protowire.Fixed32Type",
		raw:     "uint32",
		consume: "protowire.ConsumeFixed32",
		nonZero: "%s != 0",
	}
	fixed64 := wireScalar{
		wire:    "protowire.Fixed64Type",
		raw:     "uint64",
		consume: "protowire.ConsumeFixed64",
		nonZero: "%s != 0",
	}
	bytes := wireScalar{
		wire:    "protowire.BytesType",
		raw:     "[]byte",
		consume: "protowire.ConsumeBytes",
		decode:  "slices.Clone(%s)",
		append:  "protowire.AppendBytes(%[1]s, %[2]s)",
		nonZero: "len(%s) > 0",
	}

	w := varint
	switch t.Kind {
	case schema.KindBool:
		w.decode = "protowire.DecodeBool(%s)"
		w.append = "protowire.AppendVarint(%[1]s, protowire.EncodeBool(%[2]s))"
		w.nonZero = "%s"
	case schema.KindEnum:
		w.decode = ident + "(int32(%s))"
	case schema.KindInt32:
		switch t.Encoding {
		case schema.ZigZag:
			b.codecImports["math"] = true
			w.decode = "int32(protowire.DecodeZigZag(%s & math.MaxUint32))"
			w.append = "protowire.AppendVarint(%[1]s, protowire.EncodeZigZag(int64(%[2]s)))"
		case schema.Fixed:
			w = fixed32
			w.decode = "int32(%s)"
			w.append = "protowire.AppendFixed32(%[1]s, uint32(%[2]s))"
		default:
			w.decode = "int32(%s)"
		}
	case schema.KindInt64:
		switch t.Encoding {
		case schema.ZigZag:
			w.decode = "protowire.DecodeZigZag(%s)"
			w.append = "protowire.AppendVarint(%[1]s, protowire.EncodeZigZag(%[2]s))"
		case schema.Fixed:
			w = fixed64
			w.decode = "int64(%s)"
			w.append = "protowire.AppendFixed64(%[1]s, uint64(%[2]s))"
		default:
			w.decode = "int64(%s)"
		}
	case schema.KindUint32:
		if t.Encoding == schema.Fixed {
			w = fixed32
			w.decode = "%s"
			w.append = "protowire.AppendFixed32(%[1]s, %[2]s)"
		} else {
			w.decode = "uint32(%s)"
		}
	case schema.KindUint64:
		if t.Encoding == schema.Fixed {
			w = fixed64
			w.append = "protowire.AppendFixed64(%[1]s, %[2]s)"
		} else {
			w.append = "protowire.AppendVarint(%[1]s, %[2]s)"
		}
		w.decode = "%s"
	case schema.KindFloat:
		b.codecImports["math"] = true
		w = fixed32
		w.decode = "math.Float32frombits(%s)"
		w.append = "protowire.AppendFixed32(%[1]s, math.Float32bits(%[2]s))"
		w.nonZero = "math.Float32bits(%s) != 0"
	case schema.KindDouble:
		b.codecImports["math"] = true
		w = fixed64
		w.decode = "math.Float64frombits(%s)"
		w.append = "protowire.AppendFixed64(%[1]s, math.Float64bits(%[2]s))"
		w.nonZero = "math.Float64bits(%s) != 0"
	case schema.KindString:
		w = bytes
		w.raw = "string"
		w.consume = "protowire.ConsumeString"
		w.decode = "%s"
		w.append = "protowire.AppendString(%[1]s, %[2]s)"
		w.nonZero = `%s != ""`
	case schema.KindBytes:
		b.codecImports["slices"] = true
		w = bytes
	}
	return w
}

// messageCase opens a case reading a length-delimited field into v.
func messageCase(num int32) string {
	return fmt.Sprintf("case num == %d && typ == protowire.BytesType:\nvar v []byte\nv, n = protowire.ConsumeBytes(b)\n", num)
}

const returnErr = "; err != nil {\nreturn err\n}"

// decodeCases returns the switch cases decoding field f into dst inside a
// field loop over b. Each case consumes the value and sets n.
func (b *builder) decodeCases(f schema.FieldInfo, dst string) []string {
	repeated := f.Repetition == schema.Repeated
	switch {
	case f.IsMap():
		return []string{messageCase(f.Number) + "if err := x." + entryFunc(f) + "(v)" + returnErr}

	case f.Union && repeated:
		return []string{messageCase(f.Number) + fmt.Sprintf("var e %s\nif err := %s(&e, v)%s\n%s = append(%s, e)",
			b.root.Owned, b.root.MergeFunc, returnErr, dst, dst)}
	case f.Union:
		return []string{messageCase(f.Number) + fmt.Sprintf("if err := %s(&%s, v)%s", b.root.MergeFunc, dst, returnErr)}

	case f.Type.Kind == schema.KindMessage && repeated:
		return []string{messageCase(f.Number) + fmt.Sprintf("var e %s\nif err := e.unmarshalWire(v)%s\n%s = append(%s, e)",
			f.TargetIdent, returnErr, dst, dst)}
	case f.Type.Kind == schema.KindMessage && f.Boxed:
		return []string{messageCase(f.Number) + fmt.Sprintf("if %[1]s == nil {\n%[1]s = new(%[2]s)\n}\nif err := %[1]s.unmarshalWire(v)%[3]s",
			dst, f.TargetIdent, returnErr)}
	case f.Type.Kind == schema.KindMessage:
		return []string{messageCase(f.Number) + fmt.Sprintf("if err := %s.unmarshalWire(v)%s", dst, returnErr)}
	}

	w := b.scalarWire(f.Type, f.TargetIdent)
	value := fmt.Sprintf(w.decode, "v")
	assign := dst + " = " + value
	if repeated {
		assign = fmt.Sprintf("%s = append(%s, %s)", dst, dst, value)
	}
	cases := []string{fmt.Sprintf("case num == %d && typ == %s:\nvar v %s\nv, n = %s(b)\n%s",
		f.Number, w.wire, w.raw, w.consume, assign)}
	if repeated && w.wire != "protowire.BytesType" {
		cases = append(cases, messageCase(f.Number)+fmt.Sprintf(
			"for len(v) > 0 {\ne, m := %s(v)\nif m < 0 {\nreturn protowire.ParseError(m)\n}\n%s = append(%s, %s)\nv = v[m:]\n}",
			w.consume, dst, dst, fmt.Sprintf(w.decode, "e")))
	}
	return cases
}

// appendTag renders an append of the tag of field num to buf.
func appendTag(buf string, num int32, wire string) string {
	return fmt.Sprintf("%[1]s = protowire.AppendTag(%[1]s, %[2]d, %[3]s)\n", buf, num, wire)
}

// appendMessage renders an append of tag and length-prefixed payload.
func appendMessage(buf string, num int32, payload string) string {
	return appendTag(buf, num, "protowire.BytesType") +
		fmt.Sprintf("%[1]s = protowire.AppendBytes(%[1]s, %[2]s)", buf, payload)
}

// encodeStmt returns the statement appending field f, read from src, to b.
// Singular scalars at their zero value and unboxed messages that encode to
// nothing are omitted, as proto3 does for fields without presence.
func (b *builder) encodeStmt(f schema.FieldInfo, src string) string {
	repeated := f.Repetition == schema.Repeated
	union := fmt.Sprintf("%s(nil, %%s)", b.root.AppendFunc)

	switch {
	case f.IsMap():
		return b.encodeMap(f, src)

	case f.Union && repeated:
		return fmt.Sprintf("for _, v := range %s {\n%s\n}", src, appendMessage("b", f.Number, fmt.Sprintf(union, "v")))
	case f.Union:
		return fmt.Sprintf("if %s != nil {\n%s\n}", src, appendMessage("b", f.Number, fmt.Sprintf(union, src)))

	case f.Type.Kind == schema.KindMessage && repeated:
		return fmt.Sprintf("for i := range %s {\n%s\n}", src, appendMessage("b", f.Number, src+"[i].appendWire(nil)"))
	case f.Type.Kind == schema.KindMessage && f.Boxed:
		return fmt.Sprintf("if %s != nil {\n%s\n}", src, appendMessage("b", f.Number, src+".appendWire(nil)"))
	case f.Type.Kind == schema.KindMessage:
		return fmt.Sprintf("if e := %s.appendWire(nil); len(e) > 0 {\n%s\n}", src, appendMessage("b", f.Number, "e"))
	}

	w := b.scalarWire(f.Type, f.TargetIdent)
	switch {
	case repeated && w.wire == "protowire.BytesType":
		return fmt.Sprintf("for _, v := range %s {\n%s%s\n}", src,
			appendTag("b", f.Number, w.wire), fmt.Sprintf("b = "+w.append, "b", "v"))
	case repeated:
		return fmt.Sprintf("if len(%s) > 0 {\nvar p []byte\nfor _, v := range %s {\n%s\n}\n%s\n}", src, src,
			fmt.Sprintf("p = "+w.append, "p", "v"), appendMessage("b", f.Number, "p"))
	default:
		return fmt.Sprintf("if %s {\n%s%s\n}", fmt.Sprintf(w.nonZero, src),
			appendTag("b", f.Number, w.wire), fmt.Sprintf("b = "+w.append, "b", src))
	}
}

// encodeMap appends one entry message per key, in key order, so output is
// deterministic. Entries always carry both key and value.
func (b *builder) encodeMap(f schema.FieldInfo, src string) string {
	var sb strings.Builder
	if f.MapKey.Kind == schema.KindBool {
		fmt.Fprintf(&sb, "for _, k := range []bool{false, true} {\nv, ok := %s[k]\nif !ok {\ncontinue\n}\n", src)
	} else {
		b.codecImports["slices"], b.codecImports["maps"] = true, true
		fmt.Fprintf(&sb, "for _, k := range slices.Sorted(maps.Keys(%[1]s)) {\nv := %[1]s[k]\n", src)
	}

	key := b.scalarWire(*f.MapKey, "")
	sb.WriteString("var e []byte\n")
	sb.WriteString(appendTag("e", 1, key.wire))
	fmt.Fprintf(&sb, "e = "+key.append+"\n", "e", "k")

	switch {
	case f.Union:
		fmt.Fprintf(&sb, "if v != nil {\n%s\n}\n", appendMessage("e", 2, b.root.AppendFunc+"(nil, v)"))
	case f.Type.Kind == schema.KindMessage:
		sb.WriteString(appendMessage("e", 2, "v.appendWire(nil)") + "\n")
	default:
		val := b.scalarWire(f.Type, f.TargetIdent)
		sb.WriteString(appendTag("e", 2, val.wire))
		fmt.Fprintf(&sb, "e = "+val.append+"\n", "e", "v")
	}
	sb.WriteString(appendMessage("b", f.Number, "e") + "\n}")
	return sb.String()
}

func entryFunc(f schema.FieldInfo) string {
	return "unmarshal" + f.Ident + "Entry"
}

// entry builds the decoder of one map entry of f: key is field 1, value is
// field 2, and a missing half keeps its zero value.
func (b *builder) entry(f schema.FieldInfo) entryData {
	key := schema.FieldInfo{Field: schema.Field{Name: "key", Number: 1, Type: *f.MapKey}}
	val := schema.FieldInfo{
		Field:       schema.Field{Name: "value", Number: 2, Type: f.Type},
		Union:       f.Union,
		TargetIdent: f.TargetIdent,
	}
	e := entryData{
		Func:    entryFunc(f),
		Field:   f.Name,
		Map:     "x." + f.Ident,
		KeyType: scalarTypes[f.MapKey.Kind],
		ValType: b.elemType(f),
	}
	e.Decode = append(e.Decode, b.decodeCases(key, "key")...)
	e.Decode = append(e.Decode, b.decodeCases(val, "val")...)
	return e
}

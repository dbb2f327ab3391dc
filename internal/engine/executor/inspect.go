package executor

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// Inspect renders a script value canonically. An object reached more than once
// is labelled "<ref *n>" on first occurrence and rendered as "[Circular *n]"
// afterwards, so two values with the same shape and sharing render identically
// even when they live in different runtimes.
func Inspect(v goja.Value) string {
	counts := make(map[*goja.Object]int)
	walkObjects(v, counts)

	in := inspector{counts: counts, labels: make(map[*goja.Object]int)}
	var sb strings.Builder
	in.write(&sb, v)
	return sb.String()
}

// children returns the values an object renders, in render order.
func children(obj *goja.Object) []goja.Value {
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return nil
	}
	switch obj.ClassName() {
	case "Array":
		length := int(obj.Get("length").ToInteger())
		out := make([]goja.Value, 0, length)
		for i := 0; i < length; i++ {
			out = append(out, obj.Get(strconv.Itoa(i)))
		}
		return out
	case "Date", "RegExp", "Error":
		return nil
	default:
		keys := obj.Keys()
		out := make([]goja.Value, 0, len(keys))
		for _, k := range keys {
			out = append(out, obj.Get(k))
		}
		return out
	}
}

func walkObjects(v goja.Value, counts map[*goja.Object]int) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return
	}
	counts[obj]++
	if counts[obj] > 1 {
		return
	}
	for _, c := range children(obj) {
		walkObjects(c, counts)
	}
}

type inspector struct {
	counts map[*goja.Object]int
	labels map[*goja.Object]int
	next   int
}

func (in *inspector) write(sb *strings.Builder, v goja.Value) {
	switch {
	case v == nil || goja.IsUndefined(v):
		sb.WriteString("undefined")
		return
	case goja.IsNull(v):
		sb.WriteString("null")
		return
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		if _, isString := v.Export().(string); isString {
			sb.WriteString(strconv.Quote(v.String()))
			return
		}
		sb.WriteString(v.String())
		return
	}

	if n, labelled := in.labels[obj]; labelled {
		sb.WriteString("[Circular *" + strconv.Itoa(n) + "]")
		return
	}
	if in.counts[obj] > 1 {
		in.next++
		in.labels[obj] = in.next
		sb.WriteString("<ref *" + strconv.Itoa(in.next) + "> ")
	}

	if _, isFunc := goja.AssertFunction(obj); isFunc {
		sb.WriteString("[Function")
		if name := obj.Get("name"); name != nil && name.String() != "" {
			sb.WriteString(": " + name.String())
		}
		sb.WriteString("]")
		return
	}

	switch obj.ClassName() {
	case "Array":
		sb.WriteString("[")
		for i, c := range children(obj) {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.write(sb, c)
		}
		sb.WriteString("]")
	case "Date", "RegExp", "Error":
		sb.WriteString(obj.ClassName() + "(" + obj.String() + ")")
	default:
		keys := obj.Keys()
		sb.WriteString("{")
		for i, c := range children(obj) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(keys[i] + ": ")
			in.write(sb, c)
		}
		sb.WriteString("}")
	}
}

package executor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"go.trai.ch/bootdrive/internal/core/domain"
)

// Error codes set on script-visible errors.
const (
	CodeModuleNotFound      = "MODULE_NOT_FOUND"
	CodeArtifactUnavailable = "ARTIFACT_UNAVAILABLE"
)

// frameRe matches the "file:line:col(pc)" location of a goja stack frame.
var frameRe = regexp.MustCompile(`([^\s()]+):(\d+):(\d+)(?:\(\d+\))?`)

// throw raises err inside the script as an Error carrying the domain error code.
func throw(vm *goja.Runtime, err error) {
	obj := vm.NewGoError(err)

	var unresolved *domain.UnresolvedImportError
	var unavailable *domain.ArtifactUnavailableError
	switch {
	case errors.As(err, &unresolved):
		_ = obj.Set("code", CodeModuleNotFound)
		_ = obj.Set("request", unresolved.Request)
		_ = obj.Set("parent", unresolved.From)
	case errors.As(err, &unavailable):
		_ = obj.Set("code", CodeArtifactUnavailable)
		_ = obj.Set("dirname", unavailable.Dir)
	}
	panic(obj)
}

// rethrow propagates a failure from a nested module to the requiring script,
// keeping the original thrown value.
func rethrow(vm *goja.Runtime, err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex.Value())
	}
	var evalErr *domain.EvaluationError
	if errors.As(err, &evalErr) && evalErr.Thrown != nil {
		panic(evalErr.Thrown)
	}
	throw(vm, err)
}

// Convert turns a script exception into an EvaluationError whose coordinates
// point into the module source. known reports which file names are modules.
func Convert(err error, known func(string) bool) error {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return err
	}
	var nested *domain.EvaluationError
	if errors.As(ex.Unwrap(), &nested) {
		return nested
	}

	out := &domain.EvaluationError{
		Message: message(ex),
		Cause:   cause(ex),
		Thrown:  ex.Value(),
	}

	var stack []string
	for _, line := range strings.Split(ex.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "at ") {
			continue
		}
		rewritten, file, l, c := rewriteFrame(trimmed, known)
		stack = append(stack, "    "+rewritten)
		if out.Path == "" && file != "" {
			out.Path, out.Line, out.Column = file, l, c
		}
	}
	out.Stack = strings.Join(stack, "\n")
	return out
}

// rewriteFrame maps one frame onto module coordinates.
func rewriteFrame(frame string, known func(string) bool) (string, string, int, int) {
	m := frameRe.FindStringSubmatchIndex(frame)
	if m == nil {
		return frame, "", 0, 0
	}
	file := frame[m[2]:m[3]]
	if !known(file) {
		return frame, "", 0, 0
	}
	line, _ := strconv.Atoi(frame[m[4]:m[5]])
	col, _ := strconv.Atoi(frame[m[6]:m[7]])
	col = moduleColumn(line, col)
	loc := fmt.Sprintf("%s:%d:%d", file, line, col)
	return frame[:m[0]] + loc + frame[m[1]:], file, line, col
}

func message(ex *goja.Exception) string {
	if c := cause(ex); c != nil {
		return c.Error()
	}
	if v := ex.Value(); v != nil {
		return v.String()
	}
	return ex.Error()
}

// cause recovers the domain error behind a thrown value, either a wrapped Go
// error or an Error carrying one of the codes above.
func cause(ex *goja.Exception) error {
	if c := ex.Unwrap(); c != nil {
		return c
	}
	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		return nil
	}
	str := func(key string) string {
		if v := obj.Get(key); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			return v.String()
		}
		return ""
	}
	switch str("code") {
	case CodeModuleNotFound:
		return &domain.UnresolvedImportError{Request: str("request"), From: str("parent")}
	case CodeArtifactUnavailable:
		return &domain.ArtifactUnavailableError{Dir: str("dirname")}
	default:
		return nil
	}
}

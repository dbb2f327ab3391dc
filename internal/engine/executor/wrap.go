package executor

import (
	"errors"

	"github.com/dop251/goja"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
)

// wrapperHead shares the first line with the module source, so line numbers
// inside the module are unchanged and only line 1 columns are shifted.
const (
	wrapperHead = "(function (require, __dirname, __filename, module, exports) {"
	wrapperTail = "\n})"
)

// Compile compiles a CommonJS module body into a program that evaluates to
// its wrapper function. A syntax error is returned as an *domain.EvaluationError
// positioned in the module source.
func Compile(filename, source string) (*goja.Program, error) {
	ast, err := parser.ParseFile(nil, filename, wrapperHead+source+wrapperTail, 0)
	if err != nil {
		return nil, syntaxError(filename, err)
	}
	prog, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, syntaxError(filename, err)
	}
	return prog, nil
}

// syntaxError locates a parse or compile failure. Parser errors carry their
// position; compiler errors carry a file offset.
func syntaxError(filename string, err error) *domain.EvaluationError {
	out := &domain.EvaluationError{Path: filename, Line: 1, Column: 1, Message: err.Error(), Cause: err}

	var pos file.Position
	var list parser.ErrorList
	var compileErr *goja.CompilerSyntaxError
	switch {
	case errors.As(err, &list) && len(list) > 0:
		pos = list[0].Position
		out.Message = "SyntaxError: " + list[0].Message
	case errors.As(err, &compileErr) && compileErr.File != nil:
		pos = compileErr.File.Position(compileErr.Offset)
		out.Message = "SyntaxError: " + compileErr.Message
	default:
		return out
	}
	if pos.Line > 0 {
		out.Line, out.Column = pos.Line, moduleColumn(pos.Line, pos.Column)
	}
	return out
}

// moduleColumn maps a column of the wrapped program back to the module source.
func moduleColumn(line, col int) int {
	if line == 1 {
		col -= len(wrapperHead)
	}
	if col < 1 {
		col = 1
	}
	return col
}

// wrapper evaluates a compiled module into its callable wrapper.
func wrapper(vm *goja.Runtime, prog *goja.Program) (goja.Callable, error) {
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, zerr.New("module wrapper is not a function")
	}
	return fn, nil
}

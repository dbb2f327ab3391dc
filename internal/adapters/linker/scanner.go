package linker

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
)

// Scanner extracts the static require() requests of a CommonJS source file.
type Scanner struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewScanner creates a scanner with a JavaScript tree-sitter parser.
func NewScanner() *Scanner {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	return &Scanner{parser: parser}
}

// Scan returns the distinct require requests of source in order of first appearance.
func (s *Scanner) Scan(ctx context.Context, filename string, source []byte) ([]string, error) {
	s.mu.Lock()
	tree, err := s.parser.ParseCtx(ctx, nil, source)
	s.mu.Unlock()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "path", filename)
	}
	defer tree.Close()

	var requests []string
	seen := make(map[string]struct{})
	walk(tree.RootNode(), func(n *sitter.Node) {
		req, ok := requireRequest(n, source)
		if !ok {
			return
		}
		if _, dup := seen[req]; dup {
			return
		}
		seen[req] = struct{}{}
		requests = append(requests, req)
	})
	return requests, nil
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// requireRequest matches require("literal") and require(`literal`).
func requireRequest(n *sitter.Node, source []byte) (string, bool) {
	if n.Type() != "call_expression" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" || fn.Content(source) != "require" {
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	arg := args.NamedChild(0)
	switch arg.Type() {
	case "string":
		return unquote(arg.Content(source))
	case "template_string":
		if arg.NamedChildCount() > 0 && hasSubstitution(arg) {
			return "", false
		}
		return unquote(arg.Content(source))
	default:
		return "", false
	}
}

func hasSubstitution(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "template_substitution" {
			return true
		}
	}
	return false
}

// unquote decodes a string literal, quotes included, with JavaScript escape rules.
func unquote(raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	inner := raw[1 : len(raw)-1]
	if !strings.Contains(inner, `\`) {
		return inner, true
	}

	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == len(inner) {
			return "", false
		}
		switch e := inner[i]; e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(inner) && inner[i+1] == '\n' {
				i++
			}
		case 'x':
			r, ok := hexRune(inner, i+1, 2)
			if !ok {
				return "", false
			}
			sb.WriteRune(r)
			i += 2
		case 'u':
			r, n, ok := unicodeEscape(inner, i+1)
			if !ok {
				return "", false
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(inner[i+1:], `\u`) {
				if lo, m, ok := unicodeEscape(inner, i+3); ok {
					if pair := utf16.DecodeRune(r, lo); pair != unicode.ReplacementChar {
						r = pair
						i += 2 + m
					}
				}
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte(e)
		}
	}
	return sb.String(), true
}

// unicodeEscape decodes the body of a \u escape starting at s[i]. It returns
// the rune and the number of bytes consumed.
func unicodeEscape(s string, i int) (rune, int, bool) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 2 {
			return 0, 0, false
		}
		r, ok := hexRune(s, i+1, end-1)
		if !ok || r > unicode.MaxRune {
			return 0, 0, false
		}
		return r, end + 1, true
	}
	r, ok := hexRune(s, i, 4)
	return r, 4, ok
}

func hexRune(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i:i+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

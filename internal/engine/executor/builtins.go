package executor

import (
	"path"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/buffer"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/process"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/url"
	_ "github.com/dop251/goja_nodejs/util" // registers the util core module
)

// hostBuiltins are the core modules every runtime created here provides.
var hostBuiltins = []string{"buffer", "console", "path", "process", "url", "util"}

// HostBuiltins returns the names of the host's standard modules.
func HostBuiltins() []string {
	return append([]string(nil), hostBuiltins...)
}

// newRuntime creates a script runtime whose require only knows native modules.
// Nothing is ever loaded from the local file system.
func newRuntime() (*goja.Runtime, *require.RequireModule) {
	vm := goja.New()

	registry := require.NewRegistry(
		require.WithLoader(func(string) ([]byte, error) {
			return nil, require.ModuleFileDoesNotExistError
		}),
	)
	registry.RegisterNativeModule("path", pathModule)
	host := registry.Enable(vm)

	console.Enable(vm)
	buffer.Enable(vm)
	process.Enable(vm)
	url.Enable(vm)

	return vm, host
}

// requireHost looks name up in the host's own module namespace.
func requireHost(host *require.RequireModule, name string) (goja.Value, error) {
	return host.Require(strings.TrimPrefix(name, "node:"))
}

// pathModule is a POSIX path module rooted at "/".
func pathModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	_ = exports.Set("sep", "/")
	_ = exports.Set("delimiter", ":")
	_ = exports.Set("join", func(parts ...string) string {
		return orDot(path.Join(parts...))
	})
	_ = exports.Set("normalize", func(p string) string {
		if p == "" {
			return "."
		}
		out := path.Clean(p)
		if strings.HasSuffix(p, "/") && out != "/" {
			out += "/"
		}
		return out
	})
	_ = exports.Set("dirname", func(p string) string {
		return path.Dir(p)
	})
	_ = exports.Set("basename", func(p string, ext ...string) string {
		if p == "" {
			return ""
		}
		base := path.Base(p)
		if len(ext) > 0 && ext[0] != base {
			base = strings.TrimSuffix(base, ext[0])
		}
		return base
	})
	_ = exports.Set("extname", func(p string) string {
		base := path.Base(p)
		if strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
			return ""
		}
		return path.Ext(base)
	})
	_ = exports.Set("isAbsolute", func(p string) bool {
		return strings.HasPrefix(p, "/")
	})
	_ = exports.Set("resolve", func(parts ...string) string {
		return resolvePath(parts...)
	})
	_ = exports.Set("relative", func(from, to string) string {
		return relativePath(resolvePath(from), resolvePath(to))
	})
	_ = exports.Set("posix", exports)
}

func orDot(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func resolvePath(parts ...string) string {
	resolved := "/"
	for _, p := range parts {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "/") {
			resolved = p
			continue
		}
		resolved = path.Join(resolved, p)
	}
	return path.Clean(resolved)
}

func relativePath(from, to string) string {
	if from == to {
		return ""
	}
	split := func(p string) []string {
		if p == "/" {
			return nil
		}
		return strings.Split(strings.TrimPrefix(p, "/"), "/")
	}
	a, b := split(from), split(to)

	common := 0
	for common < len(a) && common < len(b) && a[common] == b[common] {
		common++
	}

	out := make([]string, 0, len(a)-common+len(b)-common)
	for range a[common:] {
		out = append(out, "..")
	}
	out = append(out, b[common:]...)
	return strings.Join(out, "/")
}

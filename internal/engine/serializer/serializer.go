// Package serializer renders a bundle as standalone script text and evaluates such text.
//
// The text is a fixed, versioned loader followed by one call that passes the
// bundle as data. Nothing of the engine is generated per bundle.
package serializer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dop251/goja"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/engine/executor"
	"go.trai.ch/zerr"
)

// LoaderVersion is the version of the embedded loader.
const LoaderVersion = 1

// HostGlobal is the global a hosting runtime may define to provide compile,
// require and loadAddon to the loader.
const HostGlobal = "__bootdrive_host"

//go:embed loader.js
var loaderSource string

// Loader returns the fixed loader source.
func Loader() string {
	return loaderSource
}

// Serialize renders b as script text whose completion value is the export of entry.
func Serialize(b *domain.Bundle, entry string) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrBundleEncodeFailed.Error())
	}
	entryJSON, err := json.Marshal(domain.NormalizePath(entry))
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrBundleEncodeFailed.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// bootdrive bundle %s loader v%d\n", ID(data), LoaderVersion)
	sb.WriteString(loaderSource)
	sb.WriteString("\n__bootdrive.load(")
	sb.Write(data)
	sb.WriteString(", ")
	sb.Write(entryJSON)
	sb.WriteString(", typeof " + HostGlobal + " !== 'undefined' ? " + HostGlobal + " : undefined)\n")
	return sb.String(), nil
}

// ID returns the content identifier of encoded bundle data.
func ID(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Option configures Evaluate.
type Option func(*config)

type config struct {
	addons executor.AddonLoader
	cache  *executor.Cache
}

// WithAddonLoader sets the loader used for addon artifacts.
func WithAddonLoader(l executor.AddonLoader) Option {
	return func(c *config) {
		c.addons = l
	}
}

// WithCache evaluates in the runtime of an existing cache.
func WithCache(cache *executor.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// Evaluate runs serialized text in a fresh runtime with no drive and no graph.
// Builtins bind against the evaluating runtime.
func Evaluate(text string, opts ...Option) (goja.Value, error) {
	cfg := &config{addons: executor.DescriptorLoader{}}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = executor.NewCache()
	}

	vm := cfg.cache.Runtime()
	known := make(map[string]bool)

	host := vm.NewObject()
	_ = host.Set("compile", func(call goja.FunctionCall) goja.Value {
		filename := call.Argument(0).String()
		prog, err := executor.Compile(filename, call.Argument(1).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		known[filename] = true
		fn, err := vm.RunProgram(prog)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return fn
	})
	_ = host.Set("require", func(call goja.FunctionCall) goja.Value {
		v, err := cfg.cache.RequireBuiltin(call.Argument(0).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return v
	})
	_ = host.Set("loadAddon", func(call goja.FunctionCall) goja.Value {
		var b domain.AddonBinding
		if err := json.Unmarshal([]byte(call.Argument(0).String()), &b); err != nil {
			panic(vm.NewGoError(err))
		}
		v, err := cfg.addons.Load(vm, b)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return v
	})
	if err := vm.Set(HostGlobal, host); err != nil {
		return nil, err
	}

	v, err := vm.RunScript("bundle.js", text)
	if err != nil {
		return nil, executor.Convert(err, func(p string) bool { return known[p] })
	}
	return v, nil
}

// Header parses the bundle id and loader version from the first line of text.
func Header(text string) (id string, version int, ok bool) {
	line, _, _ := strings.Cut(text, "\n")
	fields := strings.Fields(line)
	if len(fields) != 6 || fields[1] != "bootdrive" || fields[2] != "bundle" || fields[4] != "loader" {
		return "", 0, false
	}
	version, err := strconv.Atoi(strings.TrimPrefix(fields[5], "v"))
	if err != nil {
		return "", 0, false
	}
	return fields[3], version, true
}

package executor

import (
	"github.com/dop251/goja"
	"go.trai.ch/bootdrive/internal/core/domain"
)

// AddonLoader turns a bound artifact into the value the addon thunk returns.
type AddonLoader interface {
	Load(vm *goja.Runtime, b domain.AddonBinding) (goja.Value, error)
}

// DescriptorLoader exposes the artifact as a plain object describing it.
// The embedded runtime cannot link native code, so scripts see where the
// artifact lives instead of its bindings.
type DescriptorLoader struct{}

// Load implements AddonLoader.
func (DescriptorLoader) Load(vm *goja.Runtime, b domain.AddonBinding) (goja.Value, error) {
	obj := vm.NewObject()
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"path", b.Path},
		{"dirname", b.Dir},
		{"name", b.Package.Name},
		{"version", b.Package.Version},
		{"variant", b.Variant.String()},
	} {
		if err := obj.Set(kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

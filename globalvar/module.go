package globalvar

import (
	"errors"
	"fmt"
	"sync"

	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/itcraft-cn/globalvar/globalvar/registry"
)

type (
	// RootModule is a module singleton created once per test process.
	// It owns the shared registry used by all VUs.
	RootModule struct {
		// reg is the shared registry instance, created on first openRegistry().
		reg *registry.Registry

		// opts holds the options used when the registry was created.
		opts Options

		// mu protects registry creation and configuration.
		mu sync.Mutex
	}

	// ModuleInstance is created per VU.
	// It holds the per-VU JS bindings and a pointer to the RootModule to
	// access the shared registry.
	ModuleInstance struct {
		vu modules.VU
		rm *RootModule

		// vars provides the per-VU binding to the shared registry. It is set
		// by the first openRegistry() call on this VU.
		vars *GlobalRegistry
	}
)

var (
	// errRegistryOptionsConflict is returned when openRegistry() is invoked
	// with options differing from the ones the registry was created with.
	errRegistryOptionsConflict = errors.New("registry already open with different options")
	// errRegistryOptionsInvalid is returned when openRegistry() options
	// cannot be parsed from the JS value.
	errRegistryOptionsInvalid = errors.New("invalid registry options")
)

// testOpenRegistryBarrier is a test hook invoked the moment a goroutine
// enters the registry-initialization path. It lets tests synchronize
// concurrent calls to OpenRegistry without impacting production behavior
// (nil in non-test builds).
//
//nolint:gochecknoglobals // this is a test hook.
var (
	testOpenRegistryBarrier   func()
	testOpenRegistryBarrierMu sync.RWMutex
)

// Compile-time interface assertions (defensive).
var (
	_ modules.Instance = new(ModuleInstance)
	_ modules.Module   = new(RootModule)
)

// New returns a pointer to a new RootModule instance.
func New() *RootModule {
	return &RootModule{
		// As default, the registry is nil; we expect the user to call
		// openRegistry(), which sets the registry shared between all VUs.
		reg: nil,
	}
}

// NewModuleInstance implements modules.Module.
// It creates a per-VU instance wired to the RootModule (which owns the shared registry).
func (rm *RootModule) NewModuleInstance(vu modules.VU) modules.Instance {
	return &ModuleInstance{
		vu: vu,
		rm: rm,
	}
}

// getOrCreateRegistry creates the shared registry if it doesn't exist, or
// returns the existing one if the options match.
//
// The first successful call "wins" and decides the configuration; later
// calls with conflicting options are rejected to prevent two VUs silently
// operating against differently-shaped registries.
func (rm *RootModule) getOrCreateRegistry(options Options) (*registry.Registry, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.reg != nil {
		if rm.opts.Equal(options) {
			return rm.reg, nil
		}

		return nil, fmt.Errorf(
			"%w: shardCount=%d",
			errRegistryOptionsConflict, rm.opts.ShardCount,
		)
	}

	// Test hook: allows test code to synchronize concurrent OpenRegistry calls.
	// Production code sees nil and skips this entirely.
	testOpenRegistryBarrierMu.RLock()

	barrier := testOpenRegistryBarrier

	testOpenRegistryBarrierMu.RUnlock()

	if barrier != nil {
		barrier()
	}

	rm.reg = registry.NewRegistry(&registry.Config{ShardCount: options.ShardCount})
	rm.opts = options

	return rm.reg, nil
}

// Exports implements modules.Instance and exposes the JavaScript API surface
// for this module. Only openRegistry() is exported; every other operation
// hangs off the object it returns.
func (mi *ModuleInstance) Exports() modules.Exports {
	return modules.Exports{
		Named: map[string]any{
			"openRegistry": mi.OpenRegistry,
		},
	}
}

// OpenRegistry parses user options, initializes the shared registry (once),
// and returns the per-VU registry object bound to it.
func (mi *ModuleInstance) OpenRegistry(opts sobek.Value) *sobek.Object {
	options, err := NewOptionsFrom(mi.vu, opts)
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	reg, err := mi.rm.getOrCreateRegistry(options)
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	mi.vars = NewGlobalRegistry(mi.vu, reg)

	return mi.vu.Runtime().ToValue(mi.vars).ToObject(mi.vu.Runtime())
}

// Options controls how the shared registry is created on the first call to
// openRegistry().
type Options struct {
	// ShardCount sets the number of shards backing the registry.
	// If <= 0, defaults to runtime.NumCPU() (automatic).
	// If > registry.MaxShardCount, capped at registry.MaxShardCount.
	ShardCount int `js:"shardCount"`
}

// NewOptionsFrom converts a Sobek (JS) value into an Options instance,
// applying defaults and normalizing user input.
//
// The shard count is normalized here (rather than lazily inside the
// registry) so that Equal() compares what the registry was actually built
// with and "openRegistry()" matches "openRegistry({shardCount: 0})".
func NewOptionsFrom(vu modules.VU, options sobek.Value) (Options, error) {
	opts := Options{}

	if common.IsNullish(options) {
		opts.ShardCount = (&registry.Config{}).GetShardCount()
		return opts, nil
	}

	if err := vu.Runtime().ExportTo(options, &opts); err != nil {
		return opts, fmt.Errorf("%w: %w", errRegistryOptionsInvalid, err)
	}

	opts.ShardCount = (&registry.Config{ShardCount: opts.ShardCount}).GetShardCount()

	return opts, nil
}

// Equal checks if two Options are equal.
func (o Options) Equal(other Options) bool {
	return o.ShardCount == other.ShardCount
}

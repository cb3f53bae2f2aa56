package dewarp

import (
	"errors"
	"sync"

	"github.com/gogpu/dewarp/remap"
)

// StageFactory creates remap stages, typically on a GPU.
//
// Implementations are provided by backend packages and registered from an
// init function. Users opt in via blank import:
//
//	import _ "github.com/gogpu/dewarp/gpu"
type StageFactory interface {
	// Name returns the factory name (e.g. "wgpu").
	Name() string

	// Init prepares the factory. Called once during registration.
	Init() error

	// NewStage creates a stage for a width x height video.
	NewStage(width, height int) (remap.Stage, error)

	// Close releases the factory's resources.
	Close()
}

// DeviceProviderAware is an optional interface for factories that can
// share a GPU device with a host window.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	factoryMu sync.RWMutex
	factory   StageFactory
)

// RegisterStageFactory registers f, replacing and closing any previous
// factory. If f.Init fails, f is not registered.
func RegisterStageFactory(f StageFactory) error {
	if f == nil {
		return errors.New("dewarp: stage factory must not be nil")
	}
	if err := f.Init(); err != nil {
		return err
	}
	factoryMu.Lock()
	old := factory
	factory = f
	factoryMu.Unlock()
	if old != nil {
		old.Close()
	}
	propagateLogger(f, Logger())
	return nil
}

// RegisteredStageFactory returns the registered factory, or nil.
func RegisteredStageFactory() StageFactory {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	return f
}

// SetStageDeviceProvider passes a device provider to the registered
// factory. It is a no-op when no factory is registered or the factory
// cannot share devices.
func SetStageDeviceProvider(provider any) error {
	f := RegisteredStageFactory()
	if f == nil {
		return nil
	}
	if dpa, ok := f.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// NewStage creates a stage from the registered factory, falling back to
// the CPU stage when there is no factory or it fails.
func NewStage(width, height int) (remap.Stage, error) {
	if f := RegisteredStageFactory(); f != nil {
		s, err := f.NewStage(width, height)
		if err == nil {
			return s, nil
		}
		Logger().Warn("dewarp: stage factory failed, using CPU stage", "factory", f.Name(), "err", err)
	}
	return remap.NewSoftware(width, height)
}

//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync"

	"github.com/gogpu/dewarp/remap"
)

// StageFactory creates GPU remap stages. The device is opened lazily on
// the first NewStage unless a host provides one through SetDeviceProvider.
type StageFactory struct {
	mu  sync.Mutex
	dev *device
}

// Name returns the factory name.
func (f *StageFactory) Name() string { return "wgpu" }

// Init validates the embedded shaders. No device is opened yet.
func (f *StageFactory) Init() error {
	return validateShaders()
}

// NewStage creates a stage for a w by h video.
func (f *StageFactory) NewStage(w, h int) (remap.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dev == nil {
		dev, err := openDevice()
		if err != nil {
			return nil, err
		}
		f.dev = dev
	}
	return newRemapStage(f.dev, w, h)
}

// SetDeviceProvider switches to the device of a host. Stages created
// before the switch keep using the previous device and must be closed
// before Close.
func (f *StageFactory) SetDeviceProvider(provider any) error {
	dev, err := deviceFromProvider(provider)
	if err != nil {
		return err
	}
	f.mu.Lock()
	old := f.dev
	f.dev = dev
	f.mu.Unlock()
	old.destroy()
	slogger().Info("gpu: using shared device")
	return nil
}

// SetLogger replaces the package logger.
func (f *StageFactory) SetLogger(l *slog.Logger) { setLogger(l) }

// Close releases an owned device.
func (f *StageFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dev.destroy()
	f.dev = nil
}

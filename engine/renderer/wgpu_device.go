package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a WebGPU device opened without a surface, for uploading tile graphics when
// nothing is presented on screen.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// OpenDevice requests an adapter and a device from the default WebGPU instance.
//
// Parameters:
//   - forceFallbackAdapter: request the software adapter
//
// Returns:
//   - *Device: the device, released by the caller
//   - error: if no adapter or device is available
func OpenDevice(forceFallbackAdapter bool) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "Tile Device"})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, fmt.Errorf("requesting device: %w", err)
	}

	return &Device{
		instance: instance,
		adapter:  a,
		device:   d,
		queue:    d.GetQueue(),
	}, nil
}

// RenderSystem returns a render system that uploads into this device.
func (d *Device) RenderSystem(options ...RenderSystemBuilderOption) RenderSystem {
	return NewWGPURenderSystem(d.device, d.queue, options...)
}

// Release frees the device. Graphics created on it must be released first.
func (d *Device) Release() {
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

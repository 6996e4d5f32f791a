package vhci

import (
	"io"
	"strings"
	"sync"
)

// Speed is the negotiated speed of the exported device.
type Speed int

const (
	SpeedUnknown Speed = iota
	SpeedLow
	SpeedFull
	SpeedHigh
	SpeedSuper
)

var speedNames = []string{"unknown", "low", "full", "high", "super"}

func (sp Speed) String() string {
	if sp < 0 || int(sp) >= len(speedNames) {
		return "unknown"
	}
	return speedNames[sp]
}

func ParseSpeed(value string) Speed {
	switch strings.ToLower(value) {
	case "low":
		return SpeedLow
	case "full":
		return SpeedFull
	case "high":
		return SpeedHigh
	case "super":
		return SpeedSuper
	}
	return SpeedUnknown
}

// RemoteDeviceInfo identifies an exported device projected onto a port.
type RemoteDeviceInfo struct {
	Host     string
	BusID    string
	Vendor   uint16
	Product  uint16
	Revision uint16
	Class    uint8
	SubClass uint8
	Protocol uint8
	Speed    Speed
	Name     string
	Serial   string
}

// RemoteDevice is the lowest layer under a virtual port. It stands in for
// the exported device on the remote host, terminates forwarded requests
// and owns the transport to the exporter.
type RemoteDevice struct {
	info RemoteDeviceInfo

	mtx       sync.Mutex
	transport io.Closer
	closed    bool
}

func NewRemoteDevice(info RemoteDeviceInfo, transport io.Closer) *RemoteDevice {
	return &RemoteDevice{info: info, transport: transport}
}

func (d *RemoteDevice) Info() RemoteDeviceInfo {
	return d.info
}

// PnP terminates requests a port device hands down. Lifecycle requests
// succeed; removal also tears the transport down. Queries the backend has
// no answer for complete unclaimed.
func (d *RemoteDevice) PnP(req *Request) Status {
	switch req.Minor {
	case RemoveDevice, SurpriseRemoval:
		d.shutdown()
		return complete(req, StatusSuccess)
	case StartDevice, QueryRemoveDevice, CancelRemoveDevice,
		StopDevice, QueryStopDevice, CancelStopDevice,
		FilterResourceRequirements, DeviceUsageNotification, DeviceEnumerated:
		return complete(req, StatusSuccess)
	default:
		return completeAsIs(req)
	}
}

func (d *RemoteDevice) shutdown() {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.transport != nil {
		_ = d.transport.Close()
	}
}

// Closed reports whether the transport has been torn down.
func (d *RemoteDevice) Closed() bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.closed
}

package control

import (
	"errors"
	"io"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/store"
	"github.com/usbip-go/usbvhci/vhci"
)

const DialTimeout = 5 * time.Second

var ErrAlreadyPlugged = errors.New("device is already plugged")

type DialFunc func(host string) (io.Closer, error)

// DialExporter opens the transport to an exporter host.
func DialExporter(host string) (io.Closer, error) {
	return net.DialTimeout("tcp", host, DialTimeout)
}

// Control is the daemon-side RPC service driving the virtual hub.
type Control struct {
	stack *vhci.Stack
	st    *store.Store
	Dial  DialFunc
}

func New(stack *vhci.Stack, st *store.Store) *Control {
	return &Control{stack: stack, st: st, Dial: DialExporter}
}

// Plug attaches the device described by a loosely-typed parameter map and
// returns the assigned port.
func (c *Control) Plug(params map[string]interface{}) (int, error) {
	device, err := DeviceFromParams(params)
	if err != nil {
		return 0, err
	}
	return c.PlugDevice(device)
}

// PlugDevice dials the device's exporter and projects it onto a hub port.
// A device already on a port reports ErrAlreadyPlugged with that port.
func (c *Control) PlugDevice(device config.Device) (int, error) {
	if port := c.findPort(device.Host, device.BusID); port != 0 {
		return port, ErrAlreadyPlugged
	}
	transport, err := c.Dial(device.Host)
	if err != nil {
		log.WithFields(log.Fields{
			"host":  device.Host,
			"busid": device.BusID,
		}).WithError(err).Error("Could not reach exporter")
		return 0, err
	}
	vpdo, err := c.stack.Plug(DeviceInfo(device), transport)
	if err != nil {
		_ = transport.Close()
		return 0, err
	}
	if device.Persist {
		if err := c.st.PutPersistent(device); err != nil {
			log.WithError(err).Error("Could not persist device")
		}
	}
	return vpdo.Port(), nil
}

// Unplug ejects the device on a port and drops it from the persistent set.
func (c *Control) Unplug(port int) error {
	vpdo := c.stack.Port(port)
	if vpdo == nil {
		return vhci.ErrPortVacant
	}
	info := vpdo.Info()
	if err := c.st.DeletePersistent(info.Host, info.BusID); err != nil {
		log.WithError(err).Error("Could not drop persistent device")
	}
	return c.stack.Eject(port)
}

func (c *Control) Ports() []vhci.PortSnapshot {
	return c.stack.Snapshot()
}

func (c *Control) findPort(host, busID string) int {
	for _, snap := range c.stack.Snapshot() {
		if snap.Device.Host == host && snap.Device.BusID == busID {
			return snap.Port
		}
	}
	return 0
}

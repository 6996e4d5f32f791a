package vhci

import (
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNoFreePort = errors.New("no free hub port")
	ErrPortVacant = errors.New("port is vacant")
)

// Plug projects a remote device onto the first vacant hub port. The new
// port device is announced through a relations invalidation and brought up
// by the delivery worker. A full hub refuses the device.
func (s *Stack) Plug(info RemoteDeviceInfo, transport io.Closer) (*VDev, error) {
	device := NewRemoteDevice(info, transport)

	s.portsMtx.Lock()
	var vpdo *VDev
	for i, slot := range s.ports {
		if slot == nil {
			vpdo = newPortDevice(s, s.hub, i+1, device)
			s.ports[i] = vpdo
			break
		}
	}
	s.portsMtx.Unlock()

	if vpdo == nil {
		log.WithFields(log.Fields{"host": info.Host, "busid": info.BusID}).Warn("No free port")
		return nil, ErrNoFreePort
	}

	vpdo.log.WithFields(log.Fields{
		"host":   info.Host,
		"busid":  info.BusID,
		"device": info.Name,
	}).Info("Plugged")
	s.InvalidateDeviceRelations(s.hub)
	return vpdo, nil
}

// Unplug yanks the device on the given port. The port drops out of the
// hub's relations right away; the delivery worker follows up with the
// surprise removal sequence.
func (s *Stack) Unplug(port int) error {
	s.portsMtx.Lock()
	vpdo := s.portAt(port)
	if vpdo != nil {
		vpdo.unplugged = true
	}
	s.portsMtx.Unlock()

	if vpdo == nil {
		return ErrPortVacant
	}
	vpdo.log.Info("Unplugged")
	s.InvalidateDeviceRelations(s.hub)
	return nil
}

// Eject delivers an eject request to the device on the given port; the
// device answers by unplugging itself.
func (s *Stack) Eject(port int) error {
	vpdo := s.Port(port)
	if vpdo == nil {
		return ErrPortVacant
	}
	req := NewRequest(Eject)
	if status := vpdo.PnP(req); status != StatusSuccess {
		return errors.New("eject failed: " + status.String())
	}
	return nil
}

// unplugPort marks a port empty for enumeration purposes. Called from the
// eject handler with the port device's own lock held.
func (s *Stack) unplugPort(port int) {
	s.portsMtx.Lock()
	if vpdo := s.portAt(port); vpdo != nil {
		vpdo.unplugged = true
	}
	s.portsMtx.Unlock()
	s.InvalidateDeviceRelations(s.hub)
}

// detachPort frees the hub slot once a port device's removal has gone
// through.
func (s *Stack) detachPort(v *VDev) {
	s.portsMtx.Lock()
	defer s.portsMtx.Unlock()
	i := v.port - 1
	if i >= 0 && i < len(s.ports) && s.ports[i] == v {
		s.ports[i] = nil
	}
}

// Port returns the device attached on a 1-based port number, nil when the
// port is vacant or out of range.
func (s *Stack) Port(port int) *VDev {
	s.portsMtx.Lock()
	defer s.portsMtx.Unlock()
	return s.portAt(port)
}

func (s *Stack) portAt(port int) *VDev {
	if port < 1 || port > len(s.ports) {
		return nil
	}
	return s.ports[port-1]
}

// attachedPorts lists the devices the hub still reports to enumeration;
// unplugged ones are already gone from its point of view.
func (s *Stack) attachedPorts() []*VDev {
	s.portsMtx.Lock()
	defer s.portsMtx.Unlock()
	var out []*VDev
	for _, v := range s.ports {
		if v != nil && !v.unplugged {
			out = append(out, v)
		}
	}
	return out
}

func (s *Stack) allPorts() []*VDev {
	s.portsMtx.Lock()
	defer s.portsMtx.Unlock()
	var out []*VDev
	for _, v := range s.ports {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// PortSnapshot is a point-in-time view of one occupied hub port.
type PortSnapshot struct {
	Port   int
	State  string
	Refs   int
	Device RemoteDeviceInfo
}

// Snapshot reports every occupied port. Port locks are taken one at a time
// after the slot scan, so a snapshot never blocks the hub.
func (s *Stack) Snapshot() []PortSnapshot {
	attached := s.allPorts()
	out := make([]PortSnapshot, 0, len(attached))
	for _, v := range attached {
		out = append(out, PortSnapshot{
			Port:   v.port,
			State:  v.State().String(),
			Refs:   v.InterfaceRefs(),
			Device: v.Info(),
		})
	}
	return out
}

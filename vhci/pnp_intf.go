package vhci

// BusInterfaceUSBDI names the bus interface a port device publishes to
// interface users.
const BusInterfaceUSBDI = "usbdi"

// BusInterface is handed out by a successful interface query. Ref and
// Deref bracket the user's usage window; a device whose removal has
// completed refuses new references.
type BusInterface struct {
	Version int
	BusID   string
	Ref     func() bool
	Deref   func()
}

func (v *VDev) pnpQueryInterface(req *Request) Status {
	if !v.isPDO() {
		return v.forwardOrAsIs(req)
	}
	if v.kind != VirtualPort || req.InterfaceID != BusInterfaceUSBDI {
		v.log.WithField("interface", req.InterfaceID).Debug("Interface not supported")
		return completeAsIs(req)
	}

	req.Information = &BusInterface{
		Version: 1,
		BusID:   v.device.Info().BusID,
		Ref:     v.AddRef,
		Deref:   v.Release,
	}
	return complete(req, StatusSuccess)
}

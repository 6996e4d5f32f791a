package vhci

// DeviceCapabilities is the capability block a bus driver fills in for its
// child devices.
type DeviceCapabilities struct {
	Removable         bool
	EjectSupported    bool
	SurpriseRemovalOK bool
	UniqueID          bool
	SilentInstall     bool
	Address           int
	UINumber          int
}

func (v *VDev) pnpQueryCapabilities(req *Request) Status {
	if !v.isPDO() {
		return v.forwardOrAsIs(req)
	}

	caps, _ := req.Information.(*DeviceCapabilities)
	if caps == nil {
		caps = &DeviceCapabilities{}
	}
	caps.SilentInstall = true
	caps.SurpriseRemovalOK = true

	if v.kind == VirtualPort {
		caps.Removable = true
		caps.EjectSupported = true
		// instance ids are only unique under this hub
		caps.UniqueID = false
		caps.Address = v.port
		caps.UINumber = v.port
	} else {
		caps.UniqueID = true
	}

	req.Information = caps
	return complete(req, StatusSuccess)
}

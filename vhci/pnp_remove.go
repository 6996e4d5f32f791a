package vhci

// Removal is forced: it transitions unconditionally, hands the request
// down so the rest of the stack tears down too, and detaches a port
// device from its hub slot. Resource teardown happens now if no interface
// references are held, otherwise it waits for the last release.
func (v *VDev) pnpRemoveDevice(req *Request) Status {
	v.setState(Removed)
	status := v.passDownOrComplete(req)

	if v.kind == VirtualPort {
		v.stack.detachPort(v)
	}

	if v.refs == 0 {
		v.releaseLocked()
	} else {
		v.log.WithField("refs", v.refs).Info("Resource release deferred until last interface deref")
	}
	return status
}

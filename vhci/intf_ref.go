package vhci

// AddRef takes an interface reference, keeping the device pinned against
// orderly removal. Refused once removal has completed.
func (v *VDev) AddRef() bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if v.state == Removed {
		return false
	}
	v.refs++
	return true
}

// Release drops an interface reference. The last release after removal
// finishes the deferred resource teardown.
func (v *VDev) Release() {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if v.refs == 0 {
		v.log.Warn("Unbalanced interface deref")
		return
	}
	v.refs--
	if v.refs == 0 && v.state == Removed {
		v.releaseLocked()
	}
}

func (v *VDev) InterfaceRefs() int {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.refs
}

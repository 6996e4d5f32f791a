package vhci

// The stack below must be running before this node can start; a lower
// layer failure aborts the transition and the node stays where it was.
func (v *VDev) pnpStartDevice(req *Request) Status {
	if v.lower != nil {
		if status := v.lower.PnP(req); status != StatusSuccess {
			v.log.WithField("status", status).Error("Lower layer failed to start")
			return status
		}
	}
	v.setState(Started)
	return complete(req, StatusSuccess)
}

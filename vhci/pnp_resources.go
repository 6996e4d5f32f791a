package vhci

// Virtual devices consume no hardware resources, so the resource queries
// have nothing to report: they trickle down where a lower layer exists and
// otherwise complete unclaimed.

func (v *VDev) pnpQueryResources(req *Request) Status {
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpQueryResourceRequirements(req *Request) Status {
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpFilterResourceRequirements(req *Request) Status {
	if v.lower != nil {
		return v.lower.PnP(req)
	}
	return complete(req, StatusSuccess)
}

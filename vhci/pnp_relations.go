package vhci

// DeviceRelations lists related devices. An upper layer may already have
// contributed entries; handlers append to what they find. The final slice
// belongs to the caller once the request completes.
type DeviceRelations struct {
	Objects []*VDev
}

func (v *VDev) completeBusRelations(req *Request, children ...*VDev) Status {
	relations, _ := req.Information.(*DeviceRelations)
	if relations == nil {
		relations = &DeviceRelations{}
	}
	relations.Objects = append(relations.Objects, children...)
	req.Information = relations
	v.log.WithField("children", len(relations.Objects)).Debug("Bus relations")
	return complete(req, StatusSuccess)
}

func (v *VDev) pnpQueryDeviceRelations(req *Request) Status {
	switch req.Relation {
	case BusRelations:
		switch v.kind {
		case Root:
			return v.completeBusRelations(req, v.stack.cpdo)
		case Controller:
			return v.completeBusRelations(req, v.stack.hpdo)
		case VirtualHub:
			return v.completeBusRelations(req, v.stack.attachedPorts()...)
		}
		return v.forwardOrAsIs(req)
	case TargetDeviceRelation:
		if v.isPDO() {
			req.Information = &DeviceRelations{Objects: []*VDev{v}}
			return complete(req, StatusSuccess)
		}
		return v.forwardOrAsIs(req)
	default:
		return v.forwardOrAsIs(req)
	}
}

package vhci

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

var vdevDesc = [kindCount]string{
	"usbvhci ROOT",
	"usbvhci CPDO",
	"usbvhci HCD",
	"usbvhci HPDO",
	"usbvhci VHUB",
	"usbvhci VPDO",
}

// passDownOrComplete applies the default completion rule: a device with a
// lower layer hands the request down, a leaf completes it successfully.
func (v *VDev) passDownOrComplete(req *Request) Status {
	if v.lower != nil {
		return v.lower.PnP(req)
	}
	return complete(req, StatusSuccess)
}

// forwardOrAsIs hands an unclaimed request down when a lower layer exists
// and otherwise completes it without touching the in-flight status.
func (v *VDev) forwardOrAsIs(req *Request) Status {
	if v.lower != nil {
		return v.lower.PnP(req)
	}
	return completeAsIs(req)
}

// isPDO reports whether the node terminates its devnode stack and answers
// the child-device queries itself.
func (v *VDev) isPDO() bool {
	switch v.kind {
	case Root, ControllerParent, HubParent, VirtualPort:
		return true
	}
	return false
}

// setState performs a lifecycle transition. Only a transition into a
// pending state banks the prior state; the matching cancel restores it.
func (v *VDev) setState(state State) {
	switch state {
	case StopPending, RemovePending, SurpriseRemovePending:
		v.previous = v.state
	}
	v.state = state
	v.log.WithField("state", state).Debug("State")
}

// restorePreviousState undoes a pending transition. Afterwards the banked
// slot matches the live state again, so a second restore changes nothing.
func (v *VDev) restorePreviousState() {
	v.state = v.previous
}

func (v *VDev) pnpQueryStopDevice(req *Request) Status {
	v.setState(StopPending)
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpCancelStopDevice(req *Request) Status {
	if v.state == StopPending {
		v.restorePreviousState()
	}
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpStopDevice(req *Request) Status {
	v.setState(Stopped)
	return v.passDownOrComplete(req)
}

// canBeRemoved polls the interface reference gate without waiting.
func (v *VDev) canBeRemoved() bool {
	return v.refs == 0
}

func (v *VDev) pnpQueryRemoveDevice(req *Request) Status {
	if !v.canBeRemoved() {
		v.log.WithField("refs", v.refs).Info("Can't be removed")
		return complete(req, StatusUnsuccessful)
	}
	v.setState(RemovePending)
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpCancelRemoveDevice(req *Request) Status {
	if v.state == RemovePending {
		v.restorePreviousState()
	}
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpSurpriseRemoval(req *Request) Status {
	v.setState(SurpriseRemovePending)
	return v.passDownOrComplete(req)
}

// BusInformation describes the bus a child device sits on.
type BusInformation struct {
	BusTypeGUID   string
	LegacyBusType string
	BusNumber     int
}

// GUID_BUS_TYPE_USB
const BusTypeUSB = "9d7debbc-c85d-11d1-9eb4-006008c3a19a"

// allocBusInformation builds the query result buffer; swappable so tests
// can model an allocation failure.
var allocBusInformation = func(busNumber int) *BusInformation {
	return &BusInformation{
		BusTypeGUID:   BusTypeUSB,
		LegacyBusType: "PNPBus",
		BusNumber:     busNumber,
	}
}

func (v *VDev) pnpQueryBusInformation(req *Request) Status {
	bi := allocBusInformation(v.stack.busNumber)
	if bi == nil {
		return complete(req, StatusInsufficientResources)
	}
	req.Information = bi
	return complete(req, StatusSuccess)
}

func (v *VDev) pnpReserved0E(req *Request) Status {
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpReadConfig(req *Request) Status {
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpWriteConfig(req *Request) Status {
	return v.forwardOrAsIs(req)
}

// A port device being ejected is unplugged from the hub; the actual
// removal arrives later from the delivery worker once the device has
// dropped out of the hub's relations.
func (v *VDev) pnpEject(req *Request) Status {
	if v.kind == VirtualPort {
		v.stack.unplugPort(v.port)
		return complete(req, StatusSuccess)
	}
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpSetLock(req *Request) Status {
	return v.forwardOrAsIs(req)
}

func (v *VDev) pnpQueryPnPDeviceState(req *Request) Status {
	state, _ := req.Information.(DeviceStateFlag)
	if v.state == Removed {
		state |= DeviceRemoved
	}
	req.Information = state
	v.log.WithField("flags", fmt.Sprintf("%#x", int(state))).Debug("PnP device state")
	return complete(req, StatusSuccess)
}

func (v *VDev) pnpDeviceUsageNotification(req *Request) Status {
	v.log.WithFields(log.Fields{
		"usage":  req.Usage,
		"inPath": req.InPath,
	}).Debug("Device usage notification")
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpQueryLegacyBusInformation(req *Request) Status {
	return v.forwardOrAsIs(req)
}

// Delivered once the device is fully enumerated.
func (v *VDev) pnpDeviceEnumerated(req *Request) Status {
	return v.passDownOrComplete(req)
}

func (v *VDev) pnpQueryDeviceText(req *Request) Status {
	switch req.TextType {
	case TextDescription:
		if v.kind == VirtualPort {
			if name := v.device.Info().Name; name != "" {
				req.Information = name
				return complete(req, StatusSuccess)
			}
		}
		req.Information = vdevDesc[v.kind]
		return complete(req, StatusSuccess)
	case TextLocationInformation:
		if v.kind == VirtualPort {
			req.Information = fmt.Sprintf("Port_#%04d.Hub_#%04d", v.port, v.stack.busNumber)
			return complete(req, StatusSuccess)
		}
		return completeAsIs(req)
	default:
		v.log.WithFields(log.Fields{
			"type":   int(req.TextType),
			"locale": req.LocaleID,
		}).Error("Unknown device text type")
		return complete(req, StatusInvalidParameter)
	}
}

type pnpHandler func(*VDev, *Request) Status

// Handlers in minor code order.
var pnpHandlers = [minorCount]pnpHandler{
	(*VDev).pnpStartDevice,
	(*VDev).pnpQueryRemoveDevice,
	(*VDev).pnpRemoveDevice,
	(*VDev).pnpCancelRemoveDevice,
	(*VDev).pnpStopDevice,
	(*VDev).pnpQueryStopDevice,
	(*VDev).pnpCancelStopDevice,

	(*VDev).pnpQueryDeviceRelations,
	(*VDev).pnpQueryInterface,
	(*VDev).pnpQueryCapabilities,
	(*VDev).pnpQueryResources,
	(*VDev).pnpQueryResourceRequirements,
	(*VDev).pnpQueryDeviceText,
	(*VDev).pnpFilterResourceRequirements,

	(*VDev).pnpReserved0E, // 0x0E, undefined

	(*VDev).pnpReadConfig,
	(*VDev).pnpWriteConfig,
	(*VDev).pnpEject,
	(*VDev).pnpSetLock,
	(*VDev).pnpQueryID,
	(*VDev).pnpQueryPnPDeviceState,
	(*VDev).pnpQueryBusInformation,
	(*VDev).pnpDeviceUsageNotification,
	(*VDev).pnpSurpriseRemoval,

	(*VDev).pnpQueryLegacyBusInformation,
	(*VDev).pnpDeviceEnumerated,
}

// PnP routes one request through this node. A node that has completed its
// removal refuses everything; an out-of-range minor code is logged and
// completed without claiming it.
func (v *VDev) PnP(req *Request) Status {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.log.WithFields(log.Fields{"minor": req.Minor, "state": v.state}).Debug("PnP enter")

	var status Status
	if v.state == Removed {
		// do not hand anything down a removed stack
		status = complete(req, StatusNoSuchDevice)
	} else if req.Minor >= 0 && req.Minor < minorCount {
		status = pnpHandlers[req.Minor](v, req)
	} else {
		v.log.WithField("minor", int(req.Minor)).Warn("Unknown PnP minor function")
		status = v.forwardOrAsIs(req)
	}

	v.log.WithField("status", status).Debug("PnP leave")
	return status
}

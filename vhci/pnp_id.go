package vhci

import (
	"fmt"

	"github.com/howeyc/crc16"
)

func (v *VDev) pnpQueryID(req *Request) Status {
	if !v.isPDO() {
		return v.forwardOrAsIs(req)
	}

	switch req.IDKind {
	case DeviceID:
		req.Information = v.deviceID()
	case HardwareIDs:
		req.Information = v.hardwareIDs()
	case CompatibleIDs:
		if v.kind != VirtualPort {
			return completeAsIs(req)
		}
		req.Information = v.compatibleIDs()
	case InstanceID:
		req.Information = v.instanceID()
	default:
		v.log.WithField("idKind", int(req.IDKind)).Error("Unknown id kind")
		return completeAsIs(req)
	}
	return complete(req, StatusSuccess)
}

func (v *VDev) deviceID() string {
	switch v.kind {
	case Root:
		return `USBVHCI\ROOT`
	case ControllerParent:
		return `ROOT\USBVHCI`
	case HubParent:
		return `USBVHCI\VHUB`
	case VirtualPort:
		info := v.device.Info()
		return fmt.Sprintf(`USB\VID_%04X&PID_%04X`, info.Vendor, info.Product)
	}
	return ""
}

func (v *VDev) hardwareIDs() []string {
	if v.kind != VirtualPort {
		return []string{v.deviceID()}
	}
	info := v.device.Info()
	return []string{
		fmt.Sprintf(`USB\VID_%04X&PID_%04X&REV_%04X`, info.Vendor, info.Product, info.Revision),
		fmt.Sprintf(`USB\VID_%04X&PID_%04X`, info.Vendor, info.Product),
	}
}

func (v *VDev) compatibleIDs() []string {
	info := v.device.Info()
	return []string{
		fmt.Sprintf(`USB\Class_%02x&SubClass_%02x&Prot_%02x`, info.Class, info.SubClass, info.Protocol),
		fmt.Sprintf(`USB\Class_%02x&SubClass_%02x`, info.Class, info.SubClass),
		fmt.Sprintf(`USB\Class_%02x`, info.Class),
	}
}

// A port device's instance id has to survive replug, so it hashes the
// remote identity instead of counting attachments.
func (v *VDev) instanceID() string {
	if v.kind != VirtualPort {
		return "0000"
	}
	info := v.device.Info()
	sum := crc16.ChecksumCCITTFalse([]byte(info.Host + "/" + info.BusID))
	return fmt.Sprintf("%d-%04x", v.port, sum)
}

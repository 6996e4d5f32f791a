package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/epiclabs-io/elastic"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/vhci"
)

var (
	ErrHostRequired  = errors.New("host is required")
	ErrBusIDRequired = errors.New("busid is required")
)

// DeviceFromParams builds a device description from a loosely-typed
// parameter map. Numeric ids accept numbers or hex strings.
func DeviceFromParams(params map[string]interface{}) (config.Device, error) {
	var device config.Device
	for key, value := range params {
		var err error
		switch key {
		case "host":
			err = elastic.Set(&device.Host, value)
		case "busid":
			err = elastic.Set(&device.BusID, value)
		case "vendor":
			device.Vendor, err = parseID16(value)
		case "product":
			device.Product, err = parseID16(value)
		case "revision":
			device.Revision, err = parseID16(value)
		case "class":
			device.Class, err = parseID8(value)
		case "subclass":
			device.SubClass, err = parseID8(value)
		case "protocol":
			device.Protocol, err = parseID8(value)
		case "speed":
			err = elastic.Set(&device.Speed, value)
		case "name":
			err = elastic.Set(&device.Name, value)
		case "serial":
			err = elastic.Set(&device.Serial, value)
		case "persist":
			err = elastic.Set(&device.Persist, value)
		default:
			err = errors.New("unknown parameter")
		}
		if err != nil {
			return device, fmt.Errorf("parameter %q: %v", key, err)
		}
	}
	if device.Host == "" {
		return device, ErrHostRequired
	}
	if device.BusID == "" {
		return device, ErrBusIDRequired
	}
	if device.Speed != "" && !strings.EqualFold(device.Speed, "unknown") &&
		vhci.ParseSpeed(device.Speed) == vhci.SpeedUnknown {
		return device, fmt.Errorf("unknown speed %q", device.Speed)
	}
	return device, nil
}

// DeviceInfo converts a configured device into its port projection.
func DeviceInfo(device config.Device) vhci.RemoteDeviceInfo {
	return vhci.RemoteDeviceInfo{
		Host:     device.Host,
		BusID:    device.BusID,
		Vendor:   device.Vendor,
		Product:  device.Product,
		Revision: device.Revision,
		Class:    device.Class,
		SubClass: device.SubClass,
		Protocol: device.Protocol,
		Speed:    vhci.ParseSpeed(device.Speed),
		Name:     device.Name,
		Serial:   device.Serial,
	}
}

// Strings are read as hex, the usbip convention for ids; anything else is
// coerced as a plain number.
func parseHex(value interface{}, bits int) (uint64, error) {
	if str, ok := value.(string); ok {
		str = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(str)), "0x")
		return strconv.ParseUint(str, 16, bits)
	}
	var num uint64
	if err := elastic.Set(&num, value); err != nil {
		return 0, err
	}
	if bits < 64 && num >= 1<<uint(bits) {
		return 0, fmt.Errorf("%d out of range", num)
	}
	return num, nil
}

func parseID16(value interface{}) (uint16, error) {
	num, err := parseHex(value, 16)
	return uint16(num), err
}

func parseID8(value interface{}) (uint8, error) {
	num, err := parseHex(value, 8)
	return uint8(num), err
}

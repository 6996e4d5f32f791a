package vhci

import (
	"fmt"
)

// Status is the completion status a request resolves with.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotSupported
	StatusNoSuchDevice
	StatusUnsuccessful
	StatusInsufficientResources
	StatusInvalidParameter
	statusCount
)

var statusNames = [statusCount]string{
	"SUCCESS",
	"NOT_SUPPORTED",
	"NO_SUCH_DEVICE",
	"UNSUCCESSFUL",
	"INSUFFICIENT_RESOURCES",
	"INVALID_PARAMETER",
}

func (s Status) String() string {
	if s < 0 || s >= statusCount {
		return fmt.Sprintf("STATUS_%#x", int(s))
	}
	return statusNames[s]
}

// Minor identifies a PnP request.
type Minor int

const (
	StartDevice Minor = iota
	QueryRemoveDevice
	RemoveDevice
	CancelRemoveDevice
	StopDevice
	QueryStopDevice
	CancelStopDevice
	QueryDeviceRelations
	QueryInterface
	QueryCapabilities
	QueryResources
	QueryResourceRequirements
	QueryDeviceText
	FilterResourceRequirements
	minorReserved0E
	ReadConfig
	WriteConfig
	Eject
	SetLock
	QueryID
	QueryPnPDeviceState
	QueryBusInformation
	DeviceUsageNotification
	SurpriseRemoval
	QueryLegacyBusInformation
	DeviceEnumerated
	minorCount
)

var minorNames = [minorCount]string{
	"START_DEVICE",
	"QUERY_REMOVE_DEVICE",
	"REMOVE_DEVICE",
	"CANCEL_REMOVE_DEVICE",
	"STOP_DEVICE",
	"QUERY_STOP_DEVICE",
	"CANCEL_STOP_DEVICE",
	"QUERY_DEVICE_RELATIONS",
	"QUERY_INTERFACE",
	"QUERY_CAPABILITIES",
	"QUERY_RESOURCES",
	"QUERY_RESOURCE_REQUIREMENTS",
	"QUERY_DEVICE_TEXT",
	"FILTER_RESOURCE_REQUIREMENTS",
	"0x0E",
	"READ_CONFIG",
	"WRITE_CONFIG",
	"EJECT",
	"SET_LOCK",
	"QUERY_ID",
	"QUERY_PNP_DEVICE_STATE",
	"QUERY_BUS_INFORMATION",
	"DEVICE_USAGE_NOTIFICATION",
	"SURPRISE_REMOVAL",
	"QUERY_LEGACY_BUS_INFORMATION",
	"DEVICE_ENUMERATED",
}

func (m Minor) String() string {
	if m < 0 || m >= minorCount {
		return fmt.Sprintf("MN_%#02x", int(m))
	}
	return minorNames[m]
}

// RelationType selects which related devices a relations query asks for.
type RelationType int

const (
	BusRelations RelationType = iota
	EjectionRelations
	RemovalRelations
	TargetDeviceRelation
)

// IDKind selects which identifier an id query asks for.
type IDKind int

const (
	DeviceID IDKind = iota
	HardwareIDs
	CompatibleIDs
	InstanceID
)

// TextType selects which descriptive string a device text query asks for.
type TextType int

const (
	TextDescription TextType = iota
	TextLocationInformation
)

// UsageKind identifies a special file usage announced to the stack.
type UsageKind int

const (
	UsageUndefined UsageKind = iota
	UsagePaging
	UsageHibernation
	UsageDumpFile
)

// Request is one PnP request traveling down a device stack. Status is the
// in-flight result and stays untouched by layers that do not claim the
// request. Whatever a handler leaves in Information belongs to the caller
// once the request completes.
type Request struct {
	Minor Minor

	// parameters, meaningful depending on Minor
	Relation    RelationType
	IDKind      IDKind
	TextType    TextType
	LocaleID    uint32
	InterfaceID string
	Usage       UsageKind
	InPath      bool
	Lock        bool

	Status      Status
	Information interface{}
}

// NewRequest returns a request carrying the not-yet-claimed status every
// fresh request starts out with.
func NewRequest(minor Minor) *Request {
	return &Request{Minor: minor, Status: StatusNotSupported}
}

func complete(req *Request, status Status) Status {
	req.Status = status
	return status
}

// completeAsIs finishes a request without disturbing its in-flight status.
func completeAsIs(req *Request) Status {
	return req.Status
}

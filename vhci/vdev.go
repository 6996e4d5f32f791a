package vhci

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Kind identifies a vdev's layer in the virtual controller topology.
type Kind int

const (
	Root Kind = iota
	ControllerParent
	Controller
	HubParent
	VirtualHub
	VirtualPort
	kindCount
)

var kindNames = [kindCount]string{"root", "cpdo", "hcd", "hpdo", "vhub", "vpdo"}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// State is a vdev's position in the PnP lifecycle.
type State int

const (
	NotStarted State = iota
	Started
	StopPending
	Stopped
	RemovePending
	SurpriseRemovePending
	Removed
)

var stateNames = []string{
	"not started",
	"started",
	"stop pending",
	"stopped",
	"remove pending",
	"surprise remove pending",
	"removed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// DeviceStateFlag bits reported by QueryPnPDeviceState.
type DeviceStateFlag int

const (
	DeviceDisabled DeviceStateFlag = 1 << iota
	DeviceDontDisplayInUI
	DeviceFailed
	DeviceRemoved
	DeviceResourceRequirementsChanged
	DeviceNotDisableable
)

// RequestSink is the next lower layer of a vdev: either another vdev or,
// for a virtual port, the backend projecting the remote device.
type RequestSink interface {
	PnP(req *Request) Status
}

// VDev is one node of the virtual controller topology. Lifecycle
// bookkeeping is guarded by mtx; a dispatched request holds the lock for
// its whole trip through the node, including the descent into the lower
// layer.
type VDev struct {
	kind  Kind
	stack *Stack

	mtx      sync.Mutex
	state    State
	previous State
	refs     int
	released bool

	parent *VDev
	lower  RequestSink

	// VirtualPort only
	port      int
	device    *RemoteDevice
	unplugged bool // guarded by stack.portsMtx

	log *log.Entry
}

func newVDev(kind Kind, stack *Stack, parent *VDev, lower RequestSink) *VDev {
	return &VDev{
		kind:   kind,
		stack:  stack,
		parent: parent,
		lower:  lower,
		log:    log.WithField("vdev", kind.String()),
	}
}

func newPortDevice(stack *Stack, parent *VDev, port int, device *RemoteDevice) *VDev {
	v := newVDev(VirtualPort, stack, parent, device)
	v.port = port
	v.device = device
	v.log = log.WithFields(log.Fields{"vdev": VirtualPort.String(), "port": port})
	return v
}

func (v *VDev) Kind() Kind {
	return v.kind
}

func (v *VDev) State() State {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.state
}

// Parent is the non-owning back-reference up the topology; wiring is fixed
// at construction.
func (v *VDev) Parent() *VDev {
	return v.parent
}

func (v *VDev) Port() int {
	return v.port
}

// Info returns a copy of the remote device descriptor for a port device
// and a zero value for every other kind.
func (v *VDev) Info() RemoteDeviceInfo {
	if v.device == nil {
		return RemoteDeviceInfo{}
	}
	return v.device.Info()
}

func (v *VDev) releaseLocked() {
	if v.released {
		return
	}
	v.released = true
	if v.device != nil {
		v.device.shutdown()
	}
	v.log.Debug("Resources released")
}

// Released reports whether the node's resources have been torn down.
func (v *VDev) Released() bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.released
}

// Stack owns the fixed vdev arena and the hub's port slots. Port numbers
// are 1-based; slot i holds port i+1.
type Stack struct {
	busNumber int

	root *VDev
	cpdo *VDev
	hcd  *VDev
	hpdo *VDev
	hub  *VDev

	portsMtx sync.Mutex
	ports    []*VDev

	invalidations chan *VDev
	quit          chan struct{}
	quitOnce      sync.Once
	wg            sync.WaitGroup
}

const DefaultPortCount = 8

// NewStack wires the permanent topology: root over nothing, the host
// controller attached over its parent, the hub attached over the
// controller's child. Port devices come and go through Plug and Unplug.
func NewStack(busNumber, portCount int) *Stack {
	if busNumber <= 0 {
		busNumber = 1
	}
	if portCount <= 0 {
		portCount = DefaultPortCount
	}
	s := &Stack{
		busNumber:     busNumber,
		ports:         make([]*VDev, portCount),
		invalidations: make(chan *VDev, 16),
		quit:          make(chan struct{}),
	}
	s.root = newVDev(Root, s, nil, nil)
	s.cpdo = newVDev(ControllerParent, s, s.root, nil)
	s.hcd = newVDev(Controller, s, s.cpdo, s.cpdo)
	s.hpdo = newVDev(HubParent, s, s.hcd, nil)
	s.hub = newVDev(VirtualHub, s, s.hpdo, s.hpdo)
	return s
}

func (s *Stack) Root() *VDev {
	return s.root
}

func (s *Stack) HostController() *VDev {
	return s.hcd
}

func (s *Stack) Hub() *VDev {
	return s.hub
}

func (s *Stack) BusNumber() int {
	return s.busNumber
}

func (s *Stack) PortCount() int {
	return len(s.ports)
}

// Close stops the delivery worker and removes every attached port device
// so their backends shut down.
func (s *Stack) Close() error {
	s.Stop()
	for _, v := range s.allPorts() {
		s.removeDevice(v)
	}
	return nil
}

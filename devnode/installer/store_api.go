package installer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/usbip-go/usbvhci/store"
)

var (
	ErrNotInf           = errors.New("not an inf file")
	ErrEmptyHardwareID  = errors.New("empty hardware id")
	ErrNoMatchingDevice = errors.New("no device matches the hardware id")
	ErrUnknownInstance  = errors.New("unknown device instance id")
)

// StoreAPI is the platform implementation of DeviceAPI, registering device
// nodes and filter lists in the application store.
type StoreAPI struct {
	st *store.Store
}

func NewStoreAPI(st *store.Store) *StoreAPI {
	return &StoreAPI{st: st}
}

// ClassFromInf derives the device class from the inf file name. The inf
// contents are not parsed.
func (a *StoreAPI) ClassFromInf(infPath string) (string, error) {
	base := filepath.Base(infPath)
	ext := filepath.Ext(base)
	if !strings.EqualFold(ext, ".inf") {
		return "", ErrNotInf
	}
	class := strings.TrimSuffix(base, ext)
	if class == "" {
		return "", ErrNotInf
	}
	return strings.ToLower(class), nil
}

func (a *StoreAPI) CreateDevNode(class, hardwareID string) (store.DevNode, bool, error) {
	if hardwareID == "" {
		return store.DevNode{}, false, ErrEmptyHardwareID
	}
	id, err := a.st.NextDevNodeID()
	if err != nil {
		return store.DevNode{}, false, err
	}
	node := store.DevNode{
		InstanceID:  fmt.Sprintf("ROOT\\%s\\%04d", strings.ToUpper(class), id),
		HardwareIDs: []string{hardwareID},
		Class:       class,
	}
	if err := a.st.PutDevNode(node); err != nil {
		return store.DevNode{}, false, err
	}
	return node, false, nil
}

// InstallDriver binds the driver to every node carrying the hardware id.
// Replacing a different driver already bound to a node requires a reboot.
func (a *StoreAPI) InstallDriver(infPath, hardwareID string) (bool, error) {
	nodes, err := a.st.DevNodes()
	if err != nil {
		return false, err
	}
	var reboot, found bool
	for _, node := range nodes {
		if !hasHardwareID(node, hardwareID) {
			continue
		}
		found = true
		if node.Driver != "" && node.Driver != infPath {
			reboot = true
		}
		node.Driver = infPath
		if err := a.st.PutDevNode(node); err != nil {
			return reboot, err
		}
	}
	if !found {
		return false, ErrNoMatchingDevice
	}
	return reboot, nil
}

func (a *StoreAPI) EnumDevNodes(enumerator string) ([]store.DevNode, error) {
	nodes, err := a.st.DevNodes()
	if err != nil || enumerator == "" {
		return nodes, err
	}
	prefix := strings.ToUpper(enumerator) + "\\"
	var matched []store.DevNode
	for _, node := range nodes {
		if strings.HasPrefix(strings.ToUpper(node.InstanceID), prefix) {
			matched = append(matched, node)
		}
	}
	return matched, nil
}

func (a *StoreAPI) RemoveDevNode(instanceID string) (bool, error) {
	nodes, err := a.st.DevNodes()
	if err != nil {
		return false, err
	}
	for _, node := range nodes {
		if node.InstanceID != instanceID {
			continue
		}
		if err := a.st.DeleteDevNode(instanceID); err != nil {
			return false, err
		}
		return node.Driver != "", nil
	}
	return false, ErrUnknownInstance
}

func (a *StoreAPI) ClassFilters(level, className string) ([]string, error) {
	return a.st.ClassFilters(level, className)
}

func (a *StoreAPI) SetClassFilters(level, className string, drivers []string) error {
	return a.st.SetClassFilters(level, className, drivers)
}

func hasHardwareID(node store.DevNode, hardwareID string) bool {
	for _, id := range node.HardwareIDs {
		if id == hardwareID {
			return true
		}
	}
	return false
}

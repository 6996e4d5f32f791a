package store

import (
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"testing"

	"github.com/usbip-go/usbvhci/config"
)

func openTestStore(t *testing.T) (*Store, func()) {
	dir, err := ioutil.TempDir("", "usbvhci-store")
	if err != nil {
		t.Fatal(err)
	}
	st, err := OpenPath(path.Join(dir, "store.db"))
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatal(err)
	}
	return st, func() {
		_ = st.Close()
		_ = os.RemoveAll(dir)
	}
}

func TestClassFilters(t *testing.T) {
	st, cleanup := openTestStore(t)
	defer cleanup()

	drivers, err := st.ClassFilters("upper", "usb")
	if err != nil {
		t.Fatal(err)
	}
	if len(drivers) != 0 {
		t.Fatal("unwritten pair:", drivers)
	}

	if err := st.SetClassFilters("upper", "usb", []string{"first", "second"}); err != nil {
		t.Fatal(err)
	}
	drivers, err = st.ClassFilters("upper", "usb")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(drivers, []string{"first", "second"}) {
		t.Error("round trip:", drivers)
	}

	drivers, err = st.ClassFilters("lower", "usb")
	if err != nil {
		t.Fatal(err)
	}
	if len(drivers) != 0 {
		t.Error("levels share a list:", drivers)
	}

	if err := st.SetClassFilters("upper", "usb", nil); err != nil {
		t.Fatal(err)
	}
	drivers, err = st.ClassFilters("upper", "usb")
	if err != nil {
		t.Fatal(err)
	}
	if len(drivers) != 0 {
		t.Error("cleared pair:", drivers)
	}
}

func TestDevNodes(t *testing.T) {
	st, cleanup := openTestStore(t)
	defer cleanup()

	first, err := st.NextDevNodeID()
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.NextDevNodeID()
	if err != nil {
		t.Fatal(err)
	}
	if second != first+1 {
		t.Error("sequence:", first, second)
	}

	node := DevNode{
		InstanceID:  "ROOT\\USBVHCI\\0001",
		HardwareIDs: []string{"ROOT\\USBVHCI"},
		Class:       "usbvhci",
	}
	if err := st.PutDevNode(node); err != nil {
		t.Fatal(err)
	}
	nodes, err := st.DevNodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || !reflect.DeepEqual(nodes[0], node) {
		t.Error("round trip:", nodes)
	}

	node.Driver = "usbvhci.inf"
	if err := st.PutDevNode(node); err != nil {
		t.Fatal(err)
	}
	nodes, err = st.DevNodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Driver != "usbvhci.inf" {
		t.Error("update:", nodes)
	}

	if err := st.DeleteDevNode(node.InstanceID); err != nil {
		t.Fatal(err)
	}
	nodes, err = st.DevNodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Error("delete:", nodes)
	}
}

func TestPersistentDevices(t *testing.T) {
	st, cleanup := openTestStore(t)
	defer cleanup()

	device := config.Device{
		Host:    "10.0.0.5:3240",
		BusID:   "1-2",
		Vendor:  0x8087,
		Product: 0x0aaa,
		Speed:   "high",
		Persist: true,
	}
	if err := st.PutPersistent(device); err != nil {
		t.Fatal(err)
	}
	devices, err := st.PersistentDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || !reflect.DeepEqual(devices[0], device) {
		t.Error("round trip:", devices)
	}

	if err := st.DeletePersistent(device.Host, device.BusID); err != nil {
		t.Fatal(err)
	}
	devices, err = st.PersistentDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 0 {
		t.Error("delete:", devices)
	}
}

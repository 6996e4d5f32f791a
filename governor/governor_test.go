package governor

import (
	"flag"
	"io"
	"io/ioutil"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/vhci"
)

type fakeConn struct{}

func (fakeConn) Close() error { return nil }

type fakeDialer struct {
	mtx   sync.Mutex
	calls int
	err   error
}

func (f *fakeDialer) dial(host string) (io.Closer, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return fakeConn{}, nil
}

func (f *fakeDialer) callCount() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.calls
}

func testGovernor(t *testing.T, cfg *config.Config) (*Governor, *fakeDialer, func()) {
	dir, err := ioutil.TempDir("", "usbvhci-governor")
	if err != nil {
		t.Fatal(err)
	}
	prevConfig := config.ConfigPath()
	if err := flag.Set("home-folder", dir); err != nil {
		_ = os.RemoveAll(dir)
		t.Fatal(err)
	}
	if err := flag.Set("config", path.Join(dir, "config.yaml")); err != nil {
		_ = os.RemoveAll(dir)
		t.Fatal(err)
	}
	g, err := NewGovernor(cfg)
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatal(err)
	}
	dialer := &fakeDialer{}
	g.Control.Dial = dialer.dial
	return g, dialer, func() {
		g.Stop()
		_ = flag.Set("home-folder", "~/.usbvhci")
		_ = flag.Set("config", prevConfig)
		_ = os.RemoveAll(dir)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// writeConfig replaces the config file atomically so the watcher sees a
// single event carrying the complete content.
func writeConfig(t *testing.T, cfg *config.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tmpPath := config.ConfigPath() + ".tmp"
	if err := ioutil.WriteFile(tmpPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmpPath, config.ConfigPath()); err != nil {
		t.Fatal(err)
	}
}

func persistDevice() config.Device {
	return config.Device{
		Host: "10.0.0.5:3240", BusID: "1-2",
		Vendor: 0x8087, Product: 0x0aaa, Speed: "high", Persist: true,
	}
}

func plainDevice() config.Device {
	return config.Device{
		Host: "10.0.0.6:3240", BusID: "2-1",
		Vendor: 0x1d6b, Product: 0x0104, Speed: "super",
	}
}

func TestApplyDevices(t *testing.T) {
	cfg := &config.Config{PortCount: 4, Devices: []config.Device{persistDevice(), plainDevice()}}
	g, dialer, cleanup := testGovernor(t, cfg)
	defer cleanup()
	g.applyDevices(g.Config.Devices)
	if got := len(g.Stack.Snapshot()); got != 2 {
		t.Fatalf("expected 2 plugged devices, got %d", got)
	}
	devices, err := g.Store.PersistentDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || devices[0].BusID != "1-2" {
		t.Errorf("unexpected persistent devices %+v", devices)
	}
	if dialer.callCount() != 2 {
		t.Errorf("expected 2 dials, got %d", dialer.callCount())
	}
}

func TestReplugRetriesUnreachable(t *testing.T) {
	cfg := &config.Config{PortCount: 4, Devices: []config.Device{persistDevice()}}
	g, dialer, cleanup := testGovernor(t, cfg)
	defer cleanup()
	dialer.err = io.ErrClosedPipe
	g.applyDevices(g.Config.Devices)
	if got := len(g.Stack.Snapshot()); got != 0 {
		t.Fatalf("expected no plugged devices, got %d", got)
	}
	devices, err := g.Store.PersistentDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected unreachable device to stay persistent, got %+v", devices)
	}
	dialer.err = nil
	g.replugPersistent()
	if got := len(g.Stack.Snapshot()); got != 1 {
		t.Fatalf("expected replug to attach the device, got %d ports", got)
	}
	calls := dialer.callCount()
	g.replugPersistent()
	if got := len(g.Stack.Snapshot()); got != 1 {
		t.Fatalf("expected replug to stay idempotent, got %d ports", got)
	}
	if dialer.callCount() != calls {
		t.Errorf("expected no extra dials for a plugged device, got %d", dialer.callCount()-calls)
	}
}

func TestReplugScheduleIsValid(t *testing.T) {
	c := cron.New()
	if _, err := c.AddFunc(ReplugSchedule, func() {}); err != nil {
		t.Fatal(err)
	}
}

func TestConfigChanged(t *testing.T) {
	cfg := &config.Config{PortCount: 4}
	g, _, cleanup := testGovernor(t, cfg)
	defer cleanup()
	writeConfig(t, &config.Config{})
	g.watchConfig()
	if g.watcher == nil {
		t.Fatal("config watcher not running")
	}
	writeConfig(t, &config.Config{Devices: []config.Device{plainDevice()}})
	waitFor(t, "configured device plug", func() bool {
		return len(g.Stack.Snapshot()) == 1
	})
}

func TestStartStop(t *testing.T) {
	cfg := &config.Config{
		ServerAddress:  "127.0.0.1:0",
		MonitorAddress: "127.0.0.1:0",
		PortCount:      2,
	}
	g, _, cleanup := testGovernor(t, cfg)
	defer cleanup()
	g.Start()
	if g.server == nil || g.monitor == nil {
		t.Fatal("governor surfaces not running")
	}
	waitFor(t, "hub start", func() bool {
		return g.Stack.Hub().State() == vhci.Started
	})
}

package vhci

import (
	"testing"
	"time"
)

func TestPlugFillsLowestVacantPort(t *testing.T) {
	s := testStack(t)
	first, err := s.Plug(testInfo("1-1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Plug(testInfo("1-2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Port() != 1 || second.Port() != 2 {
		t.Fatal("ports:", first.Port(), second.Port())
	}

	s.removeDevice(first)
	third, err := s.Plug(testInfo("1-3"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if third.Port() != 1 {
		t.Error("freed slot not reused:", third.Port())
	}
}

func TestPlugRefusedWhenHubFull(t *testing.T) {
	s := testStack(t)
	for i := 0; i < s.PortCount(); i++ {
		if _, err := s.Plug(testInfo("1-1"), nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Plug(testInfo("9-9"), nil); err != ErrNoFreePort {
		t.Fatal("expected ErrNoFreePort, got", err)
	}
}

func TestUnplugDropsPortFromRelations(t *testing.T) {
	s := testStack(t)
	known := map[*VDev]map[*VDev]bool{}
	vpdo, err := s.Plug(testInfo("1-2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s.reEnumerate(s.hub, known)
	if vpdo.State() != Started {
		t.Fatal("state:", vpdo.State())
	}

	if err := s.Unplug(vpdo.Port()); err != nil {
		t.Fatal(err)
	}
	attached := s.attachedPorts()
	if len(attached) != 0 {
		t.Fatal("unplugged port still reported:", attached)
	}

	s.reEnumerate(s.hub, known)
	if vpdo.State() != Removed {
		t.Error("state:", vpdo.State())
	}
	if s.Port(1) != nil {
		t.Error("slot not freed")
	}
}

func TestUnplugVacantPort(t *testing.T) {
	s := testStack(t)
	if err := s.Unplug(1); err != ErrPortVacant {
		t.Error("expected ErrPortVacant, got", err)
	}
	if err := s.Unplug(99); err != ErrPortVacant {
		t.Error("expected ErrPortVacant, got", err)
	}
}

func TestEjectUnplugsPort(t *testing.T) {
	s := testStack(t)
	known := map[*VDev]map[*VDev]bool{}
	transport := &fakeTransport{}
	vpdo, err := s.Plug(testInfo("1-2"), transport)
	if err != nil {
		t.Fatal(err)
	}
	s.reEnumerate(s.hub, known)

	if err := s.Eject(vpdo.Port()); err != nil {
		t.Fatal(err)
	}
	if len(s.attachedPorts()) != 0 {
		t.Fatal("ejected port still reported")
	}

	s.reEnumerate(s.hub, known)
	if vpdo.State() != Removed {
		t.Error("state:", vpdo.State())
	}
	if transport.closeCount() != 1 {
		t.Error("transport close count:", transport.closeCount())
	}

	if err := s.Eject(99); err != ErrPortVacant {
		t.Error("expected ErrPortVacant, got", err)
	}
}

func TestSurpriseRemovalPrecedesRemoval(t *testing.T) {
	s := testStack(t)
	known := map[*VDev]map[*VDev]bool{}
	vpdo, err := s.Plug(testInfo("1-2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s.reEnumerate(s.hub, known)

	if err := s.Unplug(vpdo.Port()); err != nil {
		t.Fatal(err)
	}
	s.reEnumerate(s.hub, known)
	if vpdo.State() != Removed {
		t.Fatal("state:", vpdo.State())
	}
	if vpdo.previous != Started {
		t.Error("surprise removal did not run first, previous:", vpdo.previous)
	}
}

func TestSnapshot(t *testing.T) {
	s := testStack(t)
	known := map[*VDev]map[*VDev]bool{}
	info := testInfo("1-2")
	info.Name = "Widget"
	if _, err := s.Plug(info, nil); err != nil {
		t.Fatal(err)
	}
	s.reEnumerate(s.hub, known)

	snapshot := s.Snapshot()
	if len(snapshot) != 1 {
		t.Fatal("snapshot size:", len(snapshot))
	}
	entry := snapshot[0]
	if entry.Port != 1 || entry.State != Started.String() {
		t.Error("snapshot entry:", entry)
	}
	if entry.Device.BusID != "1-2" || entry.Device.Name != "Widget" {
		t.Error("snapshot device:", entry.Device)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for", what)
}

func TestWorkerDeliversLifecycle(t *testing.T) {
	s := NewStack(1, 4)
	s.Start()
	defer s.Stop()

	transport := &fakeTransport{}
	vpdo, err := s.Plug(testInfo("1-2"), transport)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "port start", func() bool { return vpdo.State() == Started })

	if err := s.Unplug(vpdo.Port()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "port removal", func() bool { return vpdo.State() == Removed })
	waitFor(t, "transport close", func() bool { return transport.closeCount() == 1 })
	waitFor(t, "slot release", func() bool { return s.Port(1) == nil })
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStack(1, 4)
	s.Start()
	if _, err := s.Plug(testInfo("1-2"), nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestSpeedParsing(t *testing.T) {
	if ParseSpeed("High") != SpeedHigh {
		t.Error("high")
	}
	if ParseSpeed("SUPER") != SpeedSuper {
		t.Error("super")
	}
	if ParseSpeed("warp") != SpeedUnknown {
		t.Error("warp")
	}
	if SpeedFull.String() != "full" {
		t.Error("full")
	}
}

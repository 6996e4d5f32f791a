package transfer

import (
	"bytes"
	"testing"

	"github.com/usbip-go/usbvhci/vhci"
)

func TestFetchInbound(t *testing.T) {
	urb := &URB{
		TransferFlags: FlagDirectionIn,
		Buffer:        make([]byte, 8),
	}
	payload := []byte{1, 2, 3, 4}
	if status := FetchBulkOrInterrupt(urb, payload, len(payload)); status != vhci.StatusSuccess {
		t.Fatal("fetch:", status)
	}
	if urb.ActualLength != 4 {
		t.Error("actual length:", urb.ActualLength)
	}
	if !bytes.Equal(urb.Buffer[:4], payload) {
		t.Error("buffer:", urb.Buffer)
	}
	if !bytes.Equal(urb.Buffer[4:], make([]byte, 4)) {
		t.Error("copied past the payload:", urb.Buffer)
	}
}

func TestFetchInboundOverflow(t *testing.T) {
	urb := &URB{
		TransferFlags: FlagDirectionIn,
		Buffer:        make([]byte, 2),
	}
	payload := []byte{1, 2, 3, 4}
	if status := FetchBulkOrInterrupt(urb, payload, len(payload)); status != vhci.StatusInvalidParameter {
		t.Fatal("fetch:", status)
	}
	if urb.ActualLength != 0 {
		t.Error("actual length set on failure:", urb.ActualLength)
	}
	if !bytes.Equal(urb.Buffer, make([]byte, 2)) {
		t.Error("buffer touched on failure:", urb.Buffer)
	}
}

func TestFetchOutboundIsNoOp(t *testing.T) {
	buffer := []byte{9, 9, 9}
	urb := &URB{Buffer: buffer}
	if status := FetchBulkOrInterrupt(urb, []byte{1, 2, 3}, 3); status != vhci.StatusSuccess {
		t.Fatal("fetch:", status)
	}
	if urb.ActualLength != 0 {
		t.Error("actual length:", urb.ActualLength)
	}
	if !bytes.Equal(urb.Buffer, []byte{9, 9, 9}) {
		t.Error("outbound fetch touched the buffer:", urb.Buffer)
	}
}

func TestCopyInboundBounds(t *testing.T) {
	dst := make([]byte, 4)
	if status := CopyInbound(dst, []byte{1, 2}, 3); status != vhci.StatusInvalidParameter {
		t.Error("length past payload:", status)
	}
	if status := CopyInbound(dst, []byte{1, 2}, -1); status != vhci.StatusInvalidParameter {
		t.Error("negative length:", status)
	}
	if status := CopyInbound(dst, []byte{1, 2}, 2); status != vhci.StatusSuccess {
		t.Error("valid copy:", status)
	}
}

func TestSnapshotCounters(t *testing.T) {
	before := TakeSnapshot()

	in := &URB{TransferFlags: FlagDirectionIn, Buffer: make([]byte, 16)}
	if status := FetchBulkOrInterrupt(in, []byte{1, 2, 3}, 3); status != vhci.StatusSuccess {
		t.Fatal("fetch:", status)
	}
	out := &URB{}
	if status := FetchBulkOrInterrupt(out, nil, 7); status != vhci.StatusSuccess {
		t.Fatal("fetch:", status)
	}

	after := TakeSnapshot()
	if after.InCount != before.InCount+1 || after.InBytes != before.InBytes+3 {
		t.Error("inbound counters:", after)
	}
	if after.OutCount != before.OutCount+1 || after.OutBytes != before.OutBytes+7 {
		t.Error("outbound counters:", after)
	}
	if len(after.RecentSizes) < 2 {
		t.Error("recent sizes:", after.RecentSizes)
	}
}

package transfer

import (
	log "github.com/sirupsen/logrus"

	"github.com/usbip-go/usbvhci/vhci"
)

// Direction bit of TransferFlags.
const FlagDirectionIn = 1 << 0

// URB is the host-side view of one bulk or interrupt transfer.
type URB struct {
	TransferFlags uint32
	Buffer        []byte
	ActualLength  int
}

func (u *URB) DirectionIn() bool {
	return u.TransferFlags&FlagDirectionIn != 0
}

// CopyInbound copies n payload bytes into the caller's transfer buffer. A
// payload that does not fit is refused without touching the buffer.
func CopyInbound(dst, src []byte, n int) vhci.Status {
	if n < 0 || n > len(src) || n > len(dst) {
		log.WithFields(log.Fields{
			"length":  n,
			"buffer":  len(dst),
			"payload": len(src),
		}).Error("Transfer buffer too small")
		recordError()
		return vhci.StatusInvalidParameter
	}
	copy(dst[:n], src[:n])
	return vhci.StatusSuccess
}

// FetchBulkOrInterrupt applies a completed transfer's result to its URB.
// An inbound transfer copies the payload and records the transferred
// length; an outbound one has nothing to fetch.
func FetchBulkOrInterrupt(urb *URB, payload []byte, actual int) vhci.Status {
	if !urb.DirectionIn() {
		recordOut(actual)
		return vhci.StatusSuccess
	}
	if status := CopyInbound(urb.Buffer, payload, actual); status != vhci.StatusSuccess {
		return status
	}
	urb.ActualLength = actual
	recordIn(actual)
	return vhci.StatusSuccess
}

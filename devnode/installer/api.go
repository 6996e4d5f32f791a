package installer

import (
	log "github.com/sirupsen/logrus"

	"github.com/usbip-go/usbvhci/store"
)

const (
	LevelUpper = "upper"
	LevelLower = "lower"
)

// DeviceAPI is the device-installation surface the installer drives. Every
// call can fail independently; batch callers skip the failing item.
type DeviceAPI interface {
	ClassFromInf(infPath string) (string, error)
	CreateDevNode(class, hardwareID string) (store.DevNode, bool, error)
	InstallDriver(infPath, hardwareID string) (bool, error)
	EnumDevNodes(enumerator string) ([]store.DevNode, error)
	RemoveDevNode(instanceID string) (bool, error)
	ClassFilters(level, className string) ([]string, error)
	SetClassFilters(level, className string, drivers []string) error
}

func apiError(api, target string, err error) {
	log.WithFields(log.Fields{
		"api":    api,
		"target": target,
	}).WithError(err).Error("Device API call failed")
}

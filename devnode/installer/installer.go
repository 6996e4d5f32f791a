package installer

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

type Installer struct {
	api DeviceAPI
	out io.Writer
}

func New(api DeviceAPI, out io.Writer) *Installer {
	return &Installer{api: api, out: out}
}

// Install registers a device node for the hardware id and installs its
// driver. The reboot flag aggregates the node and driver contributions.
func (i *Installer) Install(infPath, hardwareID string) (bool, bool) {
	class, err := i.api.ClassFromInf(infPath)
	if err != nil {
		apiError("ClassFromInf", infPath, err)
		return false, false
	}
	node, nodeReboot, err := i.api.CreateDevNode(class, hardwareID)
	if err != nil {
		apiError("CreateDevNode", hardwareID, err)
		return false, false
	}
	log.WithFields(log.Fields{
		"instance": node.InstanceID,
		"class":    class,
	}).Info("Device node registered")
	driverReboot, err := i.api.InstallDriver(infPath, hardwareID)
	ok := err == nil
	if err != nil {
		apiError("InstallDriver", hardwareID, err)
	}
	reboot := nodeReboot || driverReboot
	if reboot {
		i.promptReboot()
	}
	return ok, reboot
}

// Remove uninstalls every enumerated device whose hardware-id list is
// exactly the given id. Dry run prints the matching instance ids and
// removes nothing. A failure on one device skips only that device.
func (i *Installer) Remove(hardwareID, enumerator string, dryRun bool) bool {
	nodes, err := i.api.EnumDevNodes(enumerator)
	if err != nil {
		apiError("EnumDevNodes", enumerator, err)
		return false
	}
	var reboot bool
	for _, node := range nodes {
		if len(node.HardwareIDs) != 1 || node.HardwareIDs[0] != hardwareID {
			continue
		}
		if dryRun {
			_, _ = fmt.Fprintln(i.out, node.InstanceID)
			continue
		}
		nodeReboot, err := i.api.RemoveDevNode(node.InstanceID)
		if err != nil {
			apiError("RemoveDevNode", node.InstanceID, err)
			continue
		}
		log.WithField("instance", node.InstanceID).Info("Device node removed")
		reboot = reboot || nodeReboot
	}
	if reboot {
		i.promptReboot()
	}
	return true
}

// ClassFilter adds or removes a driver name in the ordered filter list of a
// (level, class) pair, writing back only when the list actually changed.
func (i *Installer) ClassFilter(level, className, driverName string, add bool) bool {
	if level != LevelUpper && level != LevelLower {
		log.WithField("level", level).Error("Filter level must be upper or lower")
		return false
	}
	drivers, err := i.api.ClassFilters(level, className)
	if err != nil {
		apiError("ClassFilters", className, err)
		return false
	}
	var present bool
	kept := make([]string, 0, len(drivers))
	for _, name := range drivers {
		if name == driverName {
			present = true
			continue
		}
		kept = append(kept, name)
	}
	if add == present {
		log.WithFields(log.Fields{
			"class":  className,
			"level":  level,
			"driver": driverName,
		}).Info("Class filters unchanged")
		return true
	}
	if add {
		kept = append(kept, driverName)
	}
	if err := i.api.SetClassFilters(level, className, kept); err != nil {
		apiError("SetClassFilters", className, err)
		return false
	}
	log.WithFields(log.Fields{
		"class":   className,
		"level":   level,
		"filters": kept,
	}).Info("Class filters updated")
	return true
}

func (i *Installer) promptReboot() {
	_, _ = fmt.Fprintln(i.out, "Reboot is recommended")
}

package vhci

import (
	log "github.com/sirupsen/logrus"
)

// InvalidateDeviceRelations schedules a re-enumeration of a bus device's
// children. Sends coalesce when the worker is behind.
func (s *Stack) InvalidateDeviceRelations(v *VDev) {
	select {
	case s.invalidations <- v:
	default:
	}
}

// Start runs the delivery worker and brings up the permanent topology,
// each devnode stack from its top.
func (s *Stack) Start() {
	s.wg.Add(1)
	go s.pnpWorker()
	s.startDevice(s.root)
	s.startDevice(s.hcd)
	s.startDevice(s.hub)
	log.WithFields(log.Fields{
		"bus":   s.busNumber,
		"ports": len(s.ports),
	}).Info("Stack started")
}

// Stop halts the delivery worker. Safe to call more than once.
func (s *Stack) Stop() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

func (s *Stack) pnpWorker() {
	defer s.wg.Done()
	known := map[*VDev]map[*VDev]bool{}
	for {
		select {
		case <-s.quit:
			return
		case bus := <-s.invalidations:
			s.reEnumerate(bus, known)
		}
	}
}

// reEnumerate asks a bus device for its children and delivers the
// lifecycle requests the delta implies: enumeration and start for
// arrivals, surprise removal and removal for departures.
func (s *Stack) reEnumerate(bus *VDev, known map[*VDev]map[*VDev]bool) {
	req := NewRequest(QueryDeviceRelations)
	req.Relation = BusRelations
	if status := bus.PnP(req); status != StatusSuccess {
		bus.log.WithField("status", status).Warn("Relations query failed")
		return
	}
	relations, _ := req.Information.(*DeviceRelations)
	if relations == nil {
		return
	}

	children := known[bus]
	if children == nil {
		children = map[*VDev]bool{}
		known[bus] = children
	}

	current := map[*VDev]bool{}
	for _, child := range relations.Objects {
		current[child] = true
	}

	for child := range children {
		if !current[child] {
			s.removeDevice(child)
			delete(children, child)
		}
	}
	for _, child := range relations.Objects {
		if !children[child] {
			s.announceDevice(child)
			s.startDevice(child)
			children[child] = true
		}
	}
}

func (s *Stack) announceDevice(v *VDev) {
	req := NewRequest(DeviceEnumerated)
	_ = v.PnP(req)
}

func (s *Stack) startDevice(v *VDev) {
	req := NewRequest(StartDevice)
	if status := v.PnP(req); status != StatusSuccess {
		v.log.WithField("status", status).Error("Start failed")
	}
}

func (s *Stack) removeDevice(v *VDev) {
	surprise := NewRequest(SurpriseRemoval)
	if status := v.PnP(surprise); status != StatusSuccess {
		v.log.WithField("status", status).Warn("Surprise removal refused")
	}
	remove := NewRequest(RemoveDevice)
	if status := v.PnP(remove); status != StatusSuccess {
		v.log.WithField("status", status).Error("Removal failed")
		return
	}
	v.log.Info("Removed")
}

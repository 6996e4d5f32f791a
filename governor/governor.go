package governor

import (
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/gorpc"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/control"
	"github.com/usbip-go/usbvhci/monitor"
	"github.com/usbip-go/usbvhci/networking/server"
	"github.com/usbip-go/usbvhci/networking/services"
	"github.com/usbip-go/usbvhci/store"
	"github.com/usbip-go/usbvhci/utils"
	"github.com/usbip-go/usbvhci/vhci"
)

const DefaultServerAddress = ":3241"
const DefaultMonitorAddress = ":8080"

// ReplugSchedule paces reattachment of persistent devices that lost their
// exporter.
const ReplugSchedule = "@every 1m"

// Governor owns the daemon lifecycle: the device stack, its store, and the
// control, monitor and replug surfaces around them.
type Governor struct {
	Config  *config.Config
	Stack   *vhci.Stack
	Store   *store.Store
	Control *control.Control
	server  *gorpc.Server
	monitor *monitor.Monitor
	cron    *cron.Cron
	watcher *fsnotify.Watcher
}

func NewGovernor(cfg *config.Config) (*Governor, error) {
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = DefaultServerAddress
	}
	if cfg.MonitorAddress == "" {
		cfg.MonitorAddress = DefaultMonitorAddress
	}
	st, err := store.Open()
	if err != nil {
		return nil, err
	}
	stack := vhci.NewStack(cfg.BusNumber, cfg.PortCount)
	return &Governor{
		Config:  cfg,
		Stack:   stack,
		Store:   st,
		Control: control.New(stack, st),
		cron:    cron.New(),
	}, nil
}

func (g *Governor) Start() {
	if g.server != nil {
		return
	}
	g.Stack.Start()
	g.applyDevices(g.Config.Devices)
	g.replugPersistent()
	registry := services.NewRegistry()
	registry.AddService("Control", g.Control)
	srv := server.NewServer(g.Config.ServerAddress, registry)
	if err := srv.Start(); err != nil {
		log.WithFields(log.Fields{"error": err}).Fatal("Failed to start RPC server")
	}
	g.server = srv
	g.monitor = monitor.NewMonitor(g.Config.MonitorAddress, g.Stack)
	g.monitor.Start()
	if _, err := g.cron.AddFunc(ReplugSchedule, g.replugPersistent); err != nil {
		log.WithFields(log.Fields{"error": err}).Fatal("Failed to schedule replug")
	}
	g.cron.Start()
	g.watchConfig()
	log.Println("Governor started")
}

func (g *Governor) Stop() {
	if g.watcher != nil {
		_ = g.watcher.Close()
		g.watcher = nil
	}
	g.cron.Stop()
	if g.monitor != nil {
		g.monitor.Stop()
		g.monitor = nil
	}
	if g.server != nil {
		g.server.Stop()
		g.server = nil
	}
	if err := g.Stack.Close(); err != nil {
		log.WithError(err).Error("Error closing device stack")
	}
	if err := g.Store.Close(); err != nil {
		log.WithError(err).Error("Error closing store")
	}
	log.Println("Governor stopped")
}

// applyDevices plugs the configured devices. Persistent ones enter the
// store before the plug attempt so an unreachable exporter still gets
// replug retries.
func (g *Governor) applyDevices(devices []config.Device) {
	for _, device := range devices {
		if device.Persist {
			if err := g.Store.PutPersistent(device); err != nil {
				log.WithError(err).Error("Could not persist device")
			}
		}
		g.plug(device)
	}
}

func (g *Governor) plug(device config.Device) {
	port, err := g.Control.PlugDevice(device)
	if err == control.ErrAlreadyPlugged {
		return
	}
	if err != nil {
		log.WithFields(log.Fields{
			"host":  device.Host,
			"busid": device.BusID,
		}).WithError(err).Error("Could not plug device")
		return
	}
	log.WithFields(log.Fields{
		"host":  device.Host,
		"busid": device.BusID,
		"port":  port,
	}).Println("Plugged device")
}

func (g *Governor) replugPersistent() {
	devices, err := g.Store.PersistentDevices()
	if err != nil {
		log.WithError(err).Error("Could not load persistent devices")
		return
	}
	for _, device := range devices {
		g.plug(device)
	}
}

func (g *Governor) watchConfig() {
	watcher, err := utils.NewFileWatcher(config.ConfigPath(), g.configChanged)
	if err != nil {
		log.WithError(err).Warn("Could not watch config")
		return
	}
	g.watcher = watcher
}

func (g *Governor) configChanged() {
	cfg, err := config.LoadConfigFile(config.ConfigPath())
	if err != nil {
		log.WithError(err).Error("Could not reload config")
		return
	}
	g.applyDevices(cfg.Devices)
}

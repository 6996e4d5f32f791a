package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/epiclabs-io/elastic"
	log "github.com/sirupsen/logrus"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/control"
	"github.com/usbip-go/usbvhci/governor"
	"github.com/usbip-go/usbvhci/logging"
	"github.com/usbip-go/usbvhci/networking/client"
	"github.com/usbip-go/usbvhci/networking/services"
	"github.com/usbip-go/usbvhci/utils"
	"github.com/usbip-go/usbvhci/vhci"
)

// ExporterPort is the conventional usbip exporter port, appended to bare
// attach hosts.
const ExporterPort = "3240"

var defaultServer = "127.0.0.1" + governor.DefaultServerAddress

var cpuProfile bool
var tracing bool

func init() {
	flag.BoolVar(&cpuProfile, "cpu-profile", cpuProfile, "enable cpu profiling")
	flag.BoolVar(&tracing, "trace", tracing, "enable tracing")
}

func fail(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func runDaemon() {
	logging.SetupLogger()
	if cpuProfile {
		f, err := os.Create("usbvhci.prof")
		if err != nil {
			panic(err)
		}
		if err = pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}
	if tracing {
		f, err := os.Create("usbvhci.trace")
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}
	cfg, err := config.LoadConfig()
	if os.IsNotExist(err) {
		log.WithField("path", config.ConfigPath()).Warn("No config file, using defaults")
		cfg = &config.Config{}
	} else if err != nil {
		log.Fatal(err)
	}
	gov, err := governor.NewGovernor(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open device store")
	}
	gov.Start()
	utils.Wait()
	gov.Stop()
}

// newClient connects to the daemon. The registry carries an unwired
// Control so the dispatcher knows the service signatures.
func newClient(address string) *client.Client {
	registry := services.NewRegistry()
	registry.AddService("Control", control.New(nil, nil))
	cl := client.NewClient(address, registry)
	cl.Start()
	return cl
}

func runAttach(args []string) {
	cmd := flag.NewFlagSet("attach", flag.ExitOnError)
	server := cmd.String("server", defaultServer, "daemon address")
	remote := cmd.String("r", "", "exporter host")
	busID := cmd.String("b", "", "bus id of the exported device")
	speed := cmd.String("s", "", "device speed (low|full|high|super)")
	name := cmd.String("n", "", "device name")
	vendor := cmd.String("vendor", "", "vendor id (hex)")
	product := cmd.String("product", "", "product id (hex)")
	persist := cmd.Bool("persist", false, "reattach the device automatically")
	_ = cmd.Parse(args)
	if *remote == "" || *busID == "" {
		fail("usage: usbvhci attach -r <host> -b <busid>")
	}
	host := *remote
	if !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, ExporterPort)
	}
	params := map[string]interface{}{
		"host":  host,
		"busid": *busID,
	}
	if *speed != "" {
		params["speed"] = *speed
	}
	if *name != "" {
		params["name"] = *name
	}
	if *vendor != "" {
		params["vendor"] = *vendor
	}
	if *product != "" {
		params["product"] = *product
	}
	if *persist {
		params["persist"] = true
	}
	cl := newClient(*server)
	defer cl.Stop()
	result, err := cl.Call("Control", "Plug", params)
	if err != nil {
		fail("attach: %v", err)
	}
	var port int
	if err := elastic.Set(&port, result); err != nil {
		fail("attach: %v", err)
	}
	fmt.Printf("Device %s attached to port %d\n", *busID, port)
}

func runDetach(args []string) {
	cmd := flag.NewFlagSet("detach", flag.ExitOnError)
	server := cmd.String("server", defaultServer, "daemon address")
	port := cmd.Int("p", 0, "port to detach")
	_ = cmd.Parse(args)
	if *port <= 0 {
		fail("usage: usbvhci detach -p <port>")
	}
	cl := newClient(*server)
	defer cl.Stop()
	if _, err := cl.Call("Control", "Unplug", *port); err != nil {
		fail("detach: %v", err)
	}
	fmt.Printf("Device on port %d detached\n", *port)
}

func runPort(args []string) {
	cmd := flag.NewFlagSet("port", flag.ExitOnError)
	server := cmd.String("server", defaultServer, "daemon address")
	_ = cmd.Parse(args)
	cl := newClient(*server)
	defer cl.Stop()
	result, err := cl.Call("Control", "Ports", nil)
	if err != nil {
		fail("port: %v", err)
	}
	ports, _ := result.([]vhci.PortSnapshot)
	if len(ports) == 0 {
		fmt.Println("No attached devices")
		return
	}
	for _, snap := range ports {
		name := snap.Device.Name
		if name == "" {
			name = "unknown product"
		}
		fmt.Printf("Port %d: %s at %s speed\n", snap.Port, snap.State, snap.Device.Speed)
		fmt.Printf("  %s (%04x:%04x) %s@%s\n",
			name, snap.Device.Vendor, snap.Device.Product, snap.Device.BusID, snap.Device.Host)
	}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		runDaemon()
		return
	}
	switch args[0] {
	case "attach":
		runAttach(args[1:])
	case "detach":
		runDetach(args[1:])
	case "port":
		runPort(args[1:])
	default:
		fail("usage: usbvhci [attach|detach|port] ...")
	}
}

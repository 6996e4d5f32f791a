package monitor

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/dustin/go-humanize"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/usbip-go/usbvhci/logging"
	"github.com/usbip-go/usbvhci/networking/certs"
	"github.com/usbip-go/usbvhci/transfer"
	"github.com/usbip-go/usbvhci/vhci"
)

// SnapshotTTL bounds how stale a served port snapshot may be.
const SnapshotTTL = time.Second

const portsKey = "ports"

// Stats is the payload served by the stats endpoint.
type Stats struct {
	Ports        int               `json:"ports"`
	InCount      uint64            `json:"inCount"`
	OutCount     uint64            `json:"outCount"`
	Errors       uint64            `json:"errors"`
	InBytes      string            `json:"inBytes"`
	OutBytes     string            `json:"outBytes"`
	MeanSize     float64           `json:"meanSize"`
	MedianSize   float64           `json:"medianSize"`
	Quantile     float64           `json:"quantile"`
	QuantileSize float64           `json:"quantileSize"`
	Warnings     []logging.Warning `json:"warnings,omitempty"`
}

// Monitor serves read-only hub state over HTTPS.
type Monitor struct {
	address string
	stack   *vhci.Stack
	cache   *ttlcache.Cache
	router  *httprouter.Router
	server  *http.Server
}

func NewMonitor(address string, stack *vhci.Stack) *Monitor {
	m := &Monitor{
		address: address,
		stack:   stack,
		cache:   ttlcache.NewCache(),
	}
	router := httprouter.New()
	router.GET("/ports", m.GetPorts)
	router.GET("/ports/:port", m.GetPort)
	router.GET("/stats", m.GetStats)
	m.router = router
	return m
}

func (m *Monitor) Start() {
	if m.server != nil {
		return
	}
	if _, err := certs.GetCert("https"); err != nil {
		log.WithError(err).Fatal("Could not load https certificate")
	}
	certPath, keyPath, _ := certs.GetCertsPath("https")
	m.server = &http.Server{Addr: m.address, Handler: m.router}
	go func(server *http.Server) {
		if err := server.ListenAndServeTLS(certPath, keyPath); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Monitor service stopped")
		}
	}(m.server)
	log.WithField("address", m.address).Println("Monitor service started")
}

func (m *Monitor) Stop() {
	if m.server == nil {
		return
	}
	if err := m.server.Close(); err != nil {
		log.WithError(err).Error("Error stopping monitor service")
	}
	m.server = nil
}

func (m *Monitor) ports() []vhci.PortSnapshot {
	if cached, found := m.cache.Get(portsKey); found {
		return cached.([]vhci.PortSnapshot)
	}
	snapshot := m.stack.Snapshot()
	m.cache.SetWithTTL(portsKey, snapshot, SnapshotTTL)
	return snapshot
}

func (m *Monitor) GetPorts(w http.ResponseWriter, request *http.Request, _ httprouter.Params) {
	m.writeJSON(w, m.ports())
}

func (m *Monitor) GetPort(w http.ResponseWriter, request *http.Request, params httprouter.Params) {
	port, err := strconv.Atoi(params.ByName("port"))
	if err != nil {
		w.WriteHeader(404)
		return
	}
	for _, snapshot := range m.ports() {
		if snapshot.Port == port {
			m.writeJSON(w, snapshot)
			return
		}
	}
	log.WithField("port", port).Error("Port not found")
	w.WriteHeader(404)
}

func (m *Monitor) GetStats(w http.ResponseWriter, request *http.Request, _ httprouter.Params) {
	startTime := time.Now()
	params, err := ParseStatsParams(request.URL.Query())
	if err != nil {
		w.WriteHeader(404)
		return
	}
	snapshot := transfer.TakeSnapshot()
	stats := Stats{
		Ports:    len(m.ports()),
		InCount:  snapshot.InCount,
		OutCount: snapshot.OutCount,
		Errors:   snapshot.Errors,
		InBytes:  humanize.Bytes(snapshot.InBytes),
		OutBytes: humanize.Bytes(snapshot.OutBytes),
		Quantile: params.Quantile,
	}
	if params.Warnings {
		stats.Warnings = logging.Recent()
	}
	if len(snapshot.RecentSizes) > 0 {
		sort.Float64s(snapshot.RecentSizes)
		stats.MeanSize = stat.Mean(snapshot.RecentSizes, nil)
		stats.MedianSize = stat.Quantile(0.5, stat.Empirical, snapshot.RecentSizes, nil)
		stats.QuantileSize = stat.Quantile(params.Quantile, stat.Empirical, snapshot.RecentSizes, nil)
	}
	m.writeJSON(w, stats)
	log.WithFields(log.Fields{
		"elapsedTime": time.Since(startTime),
		"path":        request.URL,
	}).Println("Stats request")
}

func (m *Monitor) writeJSON(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.WithError(err).Error("Error encoding response")
	}
}

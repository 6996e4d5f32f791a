package client

import (
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/gorpc"

	"github.com/usbip-go/usbvhci/networking/certs"
	"github.com/usbip-go/usbvhci/networking/services"
)

const ClientTimeout = 10 * time.Second

var ServiceNotFound = errors.New("service not found")

func isTimeout(err error) bool {
	return strings.Contains(err.Error(), "timeout")
}

type Client struct {
	RpcClient   *gorpc.Client
	Dispatchers map[string]*gorpc.DispatcherClient
}

// NewClient connects to the daemon at a host:port address, verifying it
// against the self-provisioned CA. The registry supplies the service
// shapes the dispatcher needs.
func NewClient(address string, registry *services.Registry) *Client {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		log.WithError(err).Fatal("Could not parse server address")
	}
	ipAddrs, err := net.LookupHost(host)
	if err != nil {
		log.WithError(err).Fatal("Could not look up server host")
	}
	if len(ipAddrs) == 0 {
		log.WithField("address", address).Fatal("Could not resolve address to IP")
	}
	caPool, err := certs.GetCAPool()
	if err != nil {
		log.WithError(err).Fatal("Could not load CA certificate")
	}
	tlsConfig := &tls.Config{RootCAs: caPool}
	cl := &Client{
		RpcClient:   gorpc.NewTLSClient(net.JoinHostPort(ipAddrs[0], port), tlsConfig),
		Dispatchers: map[string]*gorpc.DispatcherClient{},
	}
	cl.RpcClient.RequestTimeout = ClientTimeout
	cl.RpcClient.LogError = gorpc.NilErrorLogger
	dispatcher := gorpc.NewDispatcher()
	for name, service := range registry.Services {
		dispatcher.AddService(name, service)
		cl.Dispatchers[name] = dispatcher.NewServiceClient(name, cl.RpcClient)
	}
	return cl
}

func (cl *Client) Start() {
	cl.RpcClient.Start()
}

func (cl *Client) Stop() {
	cl.RpcClient.Stop()
}

func (cl *Client) Restart() {
	cl.Stop()
	cl.Start()
}

func (cl *Client) Call(service, funcName string, request interface{}) (interface{}, error) {
	client, found := cl.Dispatchers[service]
	if !found {
		return nil, ServiceNotFound
	}
	result, err := client.Call(funcName, request)
	if err != nil && isTimeout(err) {
		cl.Restart()
	}
	return result, err
}

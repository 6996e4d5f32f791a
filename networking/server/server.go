package server

import (
	"crypto/tls"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/gorpc"

	"github.com/usbip-go/usbvhci/networking/certs"
	"github.com/usbip-go/usbvhci/networking/services"
)

// NewServer builds the TLS RPC server for the registered services. The
// address is a full host:port.
func NewServer(address string, registry *services.Registry) *gorpc.Server {
	dispatcher := gorpc.NewDispatcher()
	for name, service := range registry.Services {
		dispatcher.AddService(name, service)
	}
	cert, err := certs.GetCert("rpc")
	if err != nil {
		log.WithError(err).Fatal("Could not load RPC cert")
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}
	server := gorpc.NewTLSServer(address, dispatcher.NewHandlerFunc(), tlsConfig)
	server.LogError = gorpc.NilErrorLogger
	return server
}

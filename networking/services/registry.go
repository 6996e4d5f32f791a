package services

import (
	"github.com/valyala/gorpc"

	"github.com/usbip-go/usbvhci/config"
	"github.com/usbip-go/usbvhci/vhci"
)

func init() {
	var params map[string]interface{}
	var interfaceSlice []interface{}
	gorpc.RegisterType(params)
	gorpc.RegisterType(interfaceSlice)
	gorpc.RegisterType(config.Device{})
	gorpc.RegisterType([]config.Device{})
	gorpc.RegisterType(vhci.RemoteDeviceInfo{})
	gorpc.RegisterType(vhci.PortSnapshot{})
	gorpc.RegisterType([]vhci.PortSnapshot{})
}

type Registry struct {
	Services map[string]interface{}
}

func NewRegistry() *Registry {
	return &Registry{Services: map[string]interface{}{}}
}

func (r *Registry) AddService(name string, service interface{}) {
	r.Services[name] = service
}

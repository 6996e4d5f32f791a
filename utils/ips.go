package utils

import (
	"net"
)

// GetLocalIPs lists the machine's interface addresses, loopback included,
// for certificate SANs.
func GetLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, ifAddr := range addrs {
		switch v := ifAddr.(type) {
		case *net.IPNet:
			ips = append(ips, v.IP)
		case *net.IPAddr:
			ips = append(ips, v.IP)
		}
	}
	return ips, nil
}

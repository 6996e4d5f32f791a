package config

type Config struct {
	ServerAddress  string   `yaml:"server,omitempty"`
	MonitorAddress string   `yaml:"monitor,omitempty"`
	BusNumber      int      `yaml:"bus,omitempty"`
	PortCount      int      `yaml:"ports,omitempty"`
	Devices        []Device `yaml:"devices"`
}

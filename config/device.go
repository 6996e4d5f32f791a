package config

type Device struct {
	Host     string `yaml:"host"`
	BusID    string `yaml:"busid"`
	Vendor   uint16 `yaml:"vendor"`
	Product  uint16 `yaml:"product"`
	Revision uint16 `yaml:"revision,omitempty"`
	Class    uint8  `yaml:"class,omitempty"`
	SubClass uint8  `yaml:"subclass,omitempty"`
	Protocol uint8  `yaml:"protocol,omitempty"`
	Speed    string `yaml:"speed,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Serial   string `yaml:"serial,omitempty"`
	Persist  bool   `yaml:"persist,omitempty"`
}

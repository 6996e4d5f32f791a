package config

import (
	"flag"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"os"
	"path"
)

var configPath string

func init() {
	configFolder := getOrCreateConfigFolder()
	defaultConfigPath := path.Join(configFolder, "config.yaml")
	flag.StringVar(&configPath, "config", defaultConfigPath, "specify config file")
}

func getOrCreateConfigFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn("Could not find home folder")
		return ""
	}
	configFolder := path.Join(home, ".usbvhci")
	if err := os.MkdirAll(configFolder, 0700); err != nil {
		log.Warn("Could not create ", configFolder)
		return ""
	}
	return configFolder
}

func ConfigPath() string {
	return configPath
}

func LoadConfig() (*Config, error) {
	return LoadConfigFile(configPath)
}

func LoadConfigFile(filePath string) (*Config, error) {
	c := &Config{}
	log.WithField("path", filePath).Info("Loading config")
	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

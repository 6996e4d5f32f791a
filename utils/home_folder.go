package utils

import (
	"flag"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"os"
	"path"
)

var homeFolder string

func init() {
	flag.StringVar(&homeFolder, "home-folder", "~/.usbvhci", "specify home folder")
}

func GetHomeFolder() string {
	expanded, err := homedir.Expand(homeFolder)
	if err != nil {
		log.WithError(err).Fatal("Error parsing home folder")
		return ""
	}
	if err := os.MkdirAll(expanded, 0700); err != nil {
		log.WithError(err).Fatal("Could not create ", expanded)
	}
	return expanded
}

func GetSubFolder(folderPath string) string {
	targetPath := path.Join(GetHomeFolder(), folderPath)
	if err := os.MkdirAll(targetPath, 0700); err != nil {
		log.WithError(err).Fatal("Could not create ", targetPath)
	}
	return targetPath
}


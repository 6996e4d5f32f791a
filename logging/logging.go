package logging

import (
	"flag"
	"github.com/sirupsen/logrus"
	"github.com/usbip-go/usbvhci/utils"
	"io"
	"os"
	"path"
)

const LogPath = "logs"

var logFile *os.File
var logLevel string

func init() {
	flag.StringVar(&logLevel, "log-level", "debug", "specify log level")
}

func getLogFile() *os.File {
	logFolder := utils.GetSubFolder(LogPath)
	f, err := os.OpenFile(path.Join(logFolder, "log.out"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0755)
	if err != nil {
		logrus.WithError(err).Fatal("Error opening log file")
		return nil
	}
	return f
}

func exitHandler() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

func SetupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	logrus.RegisterExitHandler(exitHandler)
	logrus.AddHook(warningHook)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logFile = getLogFile()
	logrus.SetOutput(io.MultiWriter(logFile, os.Stdout))
}

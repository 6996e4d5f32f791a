package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/usbip-go/usbvhci/devnode/installer"
	"github.com/usbip-go/usbvhci/logging"
	"github.com/usbip-go/usbvhci/store"
	log "github.com/sirupsen/logrus"
)

func fail(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func openInstaller() (*installer.Installer, *store.Store) {
	st, err := store.Open()
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	return installer.New(installer.NewStoreAPI(st), os.Stdout), st
}

func runInstall(args []string) bool {
	cmd := flag.NewFlagSet("install", flag.ExitOnError)
	_ = cmd.Parse(args)
	if cmd.NArg() != 2 {
		fail("usage: devnode install <infpath> <hwid>")
	}
	infPath := cmd.Arg(0)
	if _, err := os.Stat(infPath); err != nil {
		fail("devnode install: %v", err)
	}
	inst, st := openInstaller()
	defer func() { _ = st.Close() }()
	ok, _ := inst.Install(infPath, cmd.Arg(1))
	return ok
}

func runRemove(args []string) bool {
	cmd := flag.NewFlagSet("remove", flag.ExitOnError)
	dryRun := cmd.Bool("n", false, "print InstanceId of devices that would be removed")
	cmd.BoolVar(dryRun, "dry-run", false, "print InstanceId of devices that would be removed")
	_ = cmd.Parse(args)
	if cmd.NArg() < 1 || cmd.NArg() > 2 {
		fail("usage: devnode remove [-n] <hwid> [enumerator]")
	}
	enumerator := ""
	if cmd.NArg() == 2 {
		enumerator = cmd.Arg(1)
	}
	inst, st := openInstaller()
	defer func() { _ = st.Close() }()
	return inst.Remove(cmd.Arg(0), enumerator, *dryRun)
}

func runClassFilter(args []string, add bool) bool {
	cmd := flag.NewFlagSet("classfilter", flag.ExitOnError)
	_ = cmd.Parse(args)
	if cmd.NArg() != 3 {
		fail("usage: classfilter {add|remove} {upper|lower} <class> <driver>")
	}
	inst, st := openInstaller()
	defer func() { _ = st.Close() }()
	return inst.ClassFilter(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), add)
}

func main() {
	flag.Parse()
	logging.SetupLogger()

	program := filepath.Base(os.Args[0])
	program = strings.TrimSuffix(program, filepath.Ext(program))
	args := flag.Args()

	var ok bool
	switch program {
	case "devnode":
		if len(args) == 0 {
			fail("usage: devnode {install|remove} ...")
		}
		switch args[0] {
		case "install":
			ok = runInstall(args[1:])
		case "remove":
			ok = runRemove(args[1:])
		default:
			fail("usage: devnode {install|remove} ...")
		}
	case "classfilter":
		if len(args) == 0 {
			fail("usage: classfilter {add|remove} {upper|lower} <class> <driver>")
		}
		switch args[0] {
		case "add":
			ok = runClassFilter(args[1:], true)
		case "remove":
			ok = runClassFilter(args[1:], false)
		default:
			fail("usage: classfilter {add|remove} {upper|lower} <class> <driver>")
		}
	default:
		fail("program name must be 'devnode' or 'classfilter', not %q", program)
	}
	if !ok {
		os.Exit(1)
	}
}

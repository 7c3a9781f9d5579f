package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jypelle/gifmatrix/internal/srv"
	"github.com/jypelle/gifmatrix/internal/version"
	"github.com/sirupsen/logrus"
)

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	debugMode := flag.Bool("d", false, "Enable debug mode")
	simulationMode := flag.Bool("s", false, "Enable simulation mode (no i2c display nor gpio buttons)")
	configDir := flag.String("c", defaultConfigDir(), "Location of "+version.AppName+" config folder")

	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nRotate animated GIFs on a pixel display\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run server\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	libraryFolder := runCmd.String("l", "", "GIF library folder (relative to the config folder), overrides library_folder of the param file")

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run [OPTIONS]\n", mainCommand)
		fmt.Printf("\nRun the server: rotate the library items and serve the api\n")
		fmt.Printf("\nOptions:\n")
		runCmd.PrintDefaults()
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var cmd *flag.FlagSet
	switch flag.Arg(0) {
	case "run":
		cmd = runCmd
	case "version":
		cmd = versionCmd
	default:
		fmt.Printf("\n%s is not a %s command\n", flag.Arg(0), version.AppName)
		flag.Usage()
		os.Exit(1)
	}
	cmd.Parse(flag.Args()[1:])
	if cmd.NArg() > 0 {
		fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
		cmd.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	if versionCmd.Parsed() {
		fmt.Printf("%s version %s\n", version.AppName, version.AppVersion.String())
		return
	}

	serverApp := srv.NewServerApp(*configDir, *libraryFolder, *debugMode, *simulationMode)

	// Listen stop signal, SIGUSR1 also halts the system
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT, syscall.SIGHUP, syscall.SIGUSR1)

	serverApp.Start()

	sig := <-ch
	logrus.Infof("Received signal: %v", sig)
	serverApp.Stop(sig == syscall.SIGUSR1)
}

func defaultConfigDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "./." + version.AppName
	}
	return filepath.Join(userConfigDir, version.AppName)
}

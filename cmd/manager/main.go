package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenseventyseven/AcerManager/background"
	"github.com/tenseventyseven/AcerManager/controller"
	"github.com/tenseventyseven/AcerManager/system/profile"
	"github.com/tenseventyseven/AcerManager/util"

	suture "github.com/thejerf/suture/v4"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Compile time injected variables
var (
	Version     = "v0.0.0-dev"
	IsDebug     = "yes"
	logLocation = `C:\Logs\AcerManager.log`
)

func main() {

	var healthMode = flag.Int("health-mode", -1, "battery health mode to apply at start up (0 or 1, -1 leaves it alone)")
	var systemControlMode = flag.Int("system-control-mode", -1, "system control mode to apply at start up (1 to 3, -1 leaves it alone)")
	flag.Parse()

	if IsDebug == "no" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logLocation,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		})
	}

	log.Printf("AcerManager version: %s\n", Version)
	if os.Getenv("DRY_RUN") != "" {
		log.Printf("[dry run] no hardware i/o will be performed")
	}

	notifier := background.NewNotifier()

	versionChecker, err := background.NewVersionCheck(Version, "tenseventyseven/AcerManager", notifier.C)
	if err != nil {
		log.Fatalf("[supervisor] cannot get version checker")
	}

	controllerConfig := controller.RunConfig{
		DryRun:                   os.Getenv("DRY_RUN") != "",
		InitialHealthMode:        *healthMode,
		InitialSystemControlMode: *systemControlMode,
		NotifierCh:               notifier.C,
		Registrar:                profile.NewHost(),
	}

	dep, err := controller.GetDependencies(controllerConfig)
	if err != nil {
		log.Fatalf("[supervisor] cannot get dependencies: %+v\n", err)
	}

	control, err := controller.New(controllerConfig, dep)
	if err != nil {
		log.Fatalf("[supervisor] cannot create controller: %+v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	backgroundSupervisor := suture.New("backgroundSupervisor", suture.Spec{})
	backgroundSupervisor.Add(versionChecker)
	backgroundSupervisor.Add(notifier)

	rootSupervisor := suture.New("Supervisor", suture.Spec{})
	rootSupervisor.Add(backgroundSupervisor)
	rootSupervisor.Add(control)

	sigc := make(chan os.Signal, 1)

	go func() {
		notifier.C <- util.Notification{
			Message: "Starting up AcerManager",
			Delay:   time.Second * 2,
		}
		supervisorErr := rootSupervisor.Serve(ctx)
		if supervisorErr != nil {
			log.Printf("[supervisor] rootSupervisor returns error: %+v\n", supervisorErr)
			sigc <- syscall.SIGTERM
		}
	}()

	signal.Notify(
		sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigc
	log.Printf("[supervisor] signal received: %+v\n", sig)

	cancel()
	dep.ConfigRegistry.Close()
	time.Sleep(time.Second) // 1 second for grace period
}

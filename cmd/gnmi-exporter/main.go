package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "github.com/golang/glog"

	"github.com/automixer/gnmi-exporter/pkg/core"
)

var (
	appName    = "gnmi-exporter"
	appVersion = ""
	buildDate  = ""
	cfgFile    = flag.String("config", "config.yaml", "Config file")
	dbg        = flag.Bool("dbg", false, "Enable verbose logging")
	ver        = flag.Bool("version", false, "Print version info")
)

func main() {
	_ = flag.Set("logtostderr", "true")
	flag.Parse()
	if *dbg {
		_ = flag.Set("v", "2")
	}

	if *ver {
		fmt.Printf("-- %s -- A gNMI telemetry adapter for Prometheus --\n", appName)
		fmt.Println("Release:", appVersion)
		fmt.Println("Build date:", buildDate)
		os.Exit(0)
	}

	log.Infof("Starting %s %s ...", appName, appVersion)

	if fInfo, err := os.Stat(*cfgFile); err != nil {
		log.Errorf("configuration file not found: %v", err)
		os.Exit(1)
	} else if fInfo.IsDir() {
		log.Errorf("configuration file %q is a directory", *cfgFile)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, os.Kill)
		<-c
		cancel()
	}()

	app, err := core.New(*cfgFile)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}

	log.Info("exiting")
	os.Exit(0)
}

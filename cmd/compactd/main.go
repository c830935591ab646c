package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngaut/log"

	"hummock/config"
	"hummock/coordinator"
	"hummock/meta"
)

var configFileName = flag.String("config", "conf/compactd.yaml", "configure file")

func main() {
	flag.Parse()

	conf, err := config.Load(*configFileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	log.SetLevelByString(conf.LogLevel)

	// A single-process deployment keeps its metadata in memory; a
	// replicated store implementing meta.Store takes its place in a
	// cluster.
	store := meta.NewMemStore()
	coord, err := coordinator.Start(store, conf.CompactionOptions())
	if err != nil {
		log.Errorf("compaction coordinator start failed: %v", err)
		os.Exit(1)
	}
	log.Info("compaction coordinator started")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	sig := <-signalCh
	log.Warnf("signal[%v] caught, coordinator exit", sig)
	coord.Close()
	if err := store.Close(); err != nil {
		log.Errorf("close store: %v", err)
	}
}

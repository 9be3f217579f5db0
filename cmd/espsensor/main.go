package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/config"
	"github.com/ccarrizosa/EspSensor/internal/controller"
	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/firmware"
	"github.com/ccarrizosa/EspSensor/internal/gpio"
	"github.com/ccarrizosa/EspSensor/internal/logger"
	"github.com/ccarrizosa/EspSensor/internal/mqtt"
	"github.com/ccarrizosa/EspSensor/internal/portal"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
	"github.com/ccarrizosa/EspSensor/internal/sleepdrv"
	"github.com/ccarrizosa/EspSensor/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	logger.Info().
		Str("version", firmware.Version).
		Str("client_id", firmware.ClientID()).
		Msg("Waking up")

	runner := controller.NewRunner(
		buildPolicy(),
		devconfig.NewFileStore(cfg.DeviceConfig),
		mqtt.NewSession(),
		sensor.NewADS1115(cfg.I2CBus),
		portal.New(cfg.PortalAddress),
		gpio.NewResetTrigger(cfg.ResetChip, cfg.ResetLine, gpio.DefaultHold),
		mqtt.Format,
	)

	result, err := runner.RunCycle(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Wake cycle failed")
	}

	logger.Info().
		Str("outcome", string(result.Outcome)).
		Uint8("attempts", result.Attempts).
		Dur("sleep", result.Sleep).
		Msg("Cycle finished")

	recordCycle(result)

	if cfg.NoSleep {
		fmt.Printf("outcome=%s sleep=%s\n", result.Outcome, result.Sleep)
		return
	}

	if err := sleepdrv.New().Sleep(result.Sleep); err != nil {
		logger.Fatal().Err(err).Msg("failed to enter sleep")
	}
}

func buildPolicy() controller.Policy {
	nominal := time.Duration(cfg.SleepInterval) * time.Second

	return controller.Policy{
		MaxAttempts:    uint8(cfg.MaxAttempts),
		Backoff:        time.Duration(cfg.Backoff) * time.Second,
		ConnectTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
		PortalTimeout:  time.Duration(cfg.PortalTimeout) * time.Second,
		NominalSleep:   nominal,
		RetrySleep:     nominal / time.Duration(cfg.RetryDivisor),
	}
}

func recordCycle(result controller.CycleResult) {
	if !cfg.Telemetry {
		return
	}

	collector, err := telemetry.NewService(telemetry.Config{DBPath: cfg.TelemetryDB})
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry unavailable")
		return
	}
	defer collector.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := &telemetry.CycleRecord{
		Timestamp: time.Now(),
		Outcome:   string(result.Outcome),
		Attempts:  int(result.Attempts),
		SleepFor:  result.Sleep,
		Measured:  result.Measured,
		Samples:   result.Samples,
		Version:   firmware.Version,
	}
	if err := collector.Record(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("failed to record cycle outcome")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

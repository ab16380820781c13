// Command raptord is the raptor controller core process entry point,
// grounded on
// _examples/jangala-dev-devicecode-go/cmd/pico-hal-main/main.go's
// bootstrap-then-wire-services shape, adapted from a TinyGo onboard
// main (print-only, no fmt) to a host process wiring every subsystem
// over real network listeners.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raptor/internal/cmdchannel"
	"raptor/internal/fault"
	"raptor/internal/health"
	"raptor/internal/hsm"
	"raptor/internal/logbuf"
	"raptor/internal/logserver"
	"raptor/internal/rconfig"
	"raptor/internal/scpi"
	"raptor/internal/scpiserver"
	"raptor/internal/sysreg"
	"raptor/x/fmtx"
)

func main() {
	device := flag.String("device", "raptor-sub000", "embedded device identity to load")
	flag.Parse()

	cfg, err := rconfig.Load(*device)
	if err != nil {
		fmtx.Printf("raptord: %v\n", err)
		os.Exit(1)
	}

	logs := logbuf.NewQueue(logbuf.DefaultCapacity)
	logs.Info("raptord starting: device=%s vendor=%s model=%s", *device, cfg.Vendor, cfg.Model)

	reg := sysreg.New()
	if err := reg.Init(); err != nil {
		fault.Assert(false)
	}

	errq := scpi.NewErrQueue(reg)
	errq.Init()

	fwMajor, fwMinor, fwPatch, fwRev := sysreg.UnpackSemver(mustGetU32(reg, sysreg.FWVersion))
	idn := cfg.IdentString(fmtx.Sprintf("%d.%d.%d.%d", fwMajor, fwMinor, fwPatch, fwRev))
	dispatcher := scpi.NewDispatcher(reg, errq, idn)
	pipeline := scpi.NewPipeline(dispatcher)

	ledBank := hsm.NopLEDBank{}
	dtcSink := make(chan hsm.DTCEvent, 8)
	machine := hsm.New(ledBank, logs, dtcSink)

	healthSup := health.New(nopBus{}, health.NopWatchdog{}, logs, health.WithHSM(machine))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go machine.Run(ctx)
	go healthSup.Run(ctx)
	go drainDTCs(ctx, dtcSink, logs)

	scpiAddr := fmtx.Sprintf(":%d", cfg.ScpiPort)
	loggerAddr := fmtx.Sprintf(":%d", cfg.LoggerPort)
	cmdAddr := fmtx.Sprintf(":%d", cfg.CmdPort)

	scpiSrv := scpiserver.New(scpiAddr, pipeline, logs)
	logSrv := logserver.New(loggerAddr, logs)
	cmdSrv := cmdchannel.New(cmdAddr, reg, logs)

	errCh := make(chan error, 3)
	go func() { errCh <- scpiSrv.Run(ctx) }()
	go func() { errCh <- logSrv.Run(ctx) }()
	go func() { errCh <- cmdSrv.Run(ctx) }()

	logs.Info("raptord listening: scpi=%s logger=%s cmd=%s", scpiAddr, loggerAddr, cmdAddr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logs.Critical("raptord: service exited: %v", err)
		}
	}

	// Give goroutines a moment to unwind their listeners before exit.
	time.Sleep(100 * time.Millisecond)
}

func mustGetU32(reg *sysreg.File, off sysreg.Offset) uint32 {
	v, err := reg.GetU32(off)
	if err != nil {
		fault.Assert(false)
	}
	return v
}

func drainDTCs(ctx context.Context, sink <-chan hsm.DTCEvent, logs *logbuf.Queue) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sink:
			logs.Warn("dtc posted: tick=%d id=%d", ev.Tick, ev.Event)
		}
	}
}

// nopBus stands in for a real BME280 I2C bus on a host build.
type nopBus struct{}

func (nopBus) Tx(addr uint16, w, r []byte) error { return nil }
func (nopBus) IsReady() bool                     { return true }

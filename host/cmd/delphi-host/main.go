// Command delphi-host drives an OOK radio board over USB serial, or a
// simulated one, from an interactive shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"delphi/core"
	"delphi/host/config"
	"delphi/host/logging"
	"delphi/host/publish"
	"delphi/host/station"
	"delphi/protocol"
	"delphi/sim"
)

var (
	configPath = flag.String("config", "", "TOML config file")
	simulate   = flag.Bool("sim", false, "Use simulated firmware instead of a serial device")
	timeout    = flag.Duration("timeout", 10*time.Second, "Per-command timeout; receive waits this long for a message")
	evalOnly   = flag.Bool("e", false, "Run the command given as arguments and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "delphi-host: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)
	log := logging.New("delphi-host", cfg.LogLevel)

	a, err := connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer a.close()

	sh := newShell(a)
	if *evalOnly || flag.NArg() > 0 {
		if err := sh.Process(flag.Args()...); err != nil {
			log.Fatal().Err(err).Msg("command failed")
		}
		return
	}
	sh.Println("delphi-host: profile " + a.profile.Name() + ", type help for commands")
	sh.Run()
}

func connect(cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		profile: cfg.RadioProfile(),
		timeout: *timeout,
	}

	if *simulate {
		hostEnd, fwEnd := net.Pipe()
		fwLog := logging.Component(log, "firmware")
		core.SetDebugWriter(func(s string) { fwLog.Debug().Msg(s) })
		core.SetDebugEnabled(log.GetLevel() <= zerolog.DebugLevel)
		a.fw = sim.NewFirmware()
		go func() {
			if err := a.fw.Serve(fwEnd); err != nil {
				log.Debug().Err(err).Msg("simulated firmware stopped")
			}
		}()
		a.st = station.New(protocol.NewHostTransport(hostEnd, log), log)
		log.Info().Msg("using simulated firmware")
	} else {
		st, err := station.Open(cfg.Serial, log)
		if err != nil {
			return nil, err
		}
		a.st = st
	}

	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.st.Identify(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.st.Configure(ctx, a.profile, cfg.TxPin, cfg.RxPin); err != nil {
		a.close()
		return nil, err
	}

	if cfg.MQTT.Broker != "" {
		pub, err := publish.Connect(cfg.MQTT, log)
		if err != nil {
			log.Warn().Err(err).Msg("publishing disabled")
		} else {
			a.pub = pub
		}
	}
	return a, nil
}

func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *app) close() {
	if a.pub != nil {
		a.pub.Close()
	}
	if a.st != nil {
		a.st.Close()
	}
}

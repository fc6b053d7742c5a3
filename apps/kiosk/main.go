package main

import (
	"log"
	"os"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/services/backend"
	logsvc "github.com/doe69john/SmartAttendanceSMU-sub001/services/logger"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	if err := conf.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "KIOSK : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	cli := commandLine{
		conf:   conf,
		logger: logger,
		client: backend.NewClient(conf, logger),
		in:     os.Stdin,
		out:    os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}
}

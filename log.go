// Copyright (c) 2021 The Abelian Foundation
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/joltify-finance/token-staking/dal"
	"github.com/joltify-finance/token-staking/eventbus"
	"github.com/joltify-finance/token-staking/restapi"
	"github.com/joltify-finance/token-staking/scheduler"
	"github.com/joltify-finance/token-staking/service"
	"github.com/joltify-finance/token-staking/stakemgr"
	"github.com/joltify-finance/token-staking/stakingserver"
	"github.com/joltify-finance/token-staking/utils"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem.  A single backend logger is created and all subsytem
// loggers created from it will write to the backend.  When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file.  This must be performed early during application startup by calling
// initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	stkdLog    = backendLog.Logger("STKD")
	ledgerLog  = backendLog.Logger("STKM")
	dalLog     = backendLog.Logger("DAL")
	serviceLog = backendLog.Logger("SRVC")
	rpcsLog    = backendLog.Logger("RPCS")
	restLog    = backendLog.Logger("REST")
	evbsLog    = backendLog.Logger("EVBS")
	schdLog    = backendLog.Logger("SCHD")
	utilsLog   = backendLog.Logger("UTIL")
)

// Initialize package-global logger variables.
func init() {
	stakemgr.UseLogger(ledgerLog)
	dal.UseLogger(dalLog)
	service.UseLogger(serviceLog)
	stakingserver.UseLogger(rpcsLog)
	restapi.UseLogger(restLog)
	eventbus.UseLogger(evbsLog)
	scheduler.UseLogger(schdLog)
	utils.UseLogger(utilsLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"STKD": stkdLog,
	"STKM": ledgerLog,
	"DAL":  dalLog,
	"SRVC": serviceLog,
	"RPCS": rpcsLog,
	"REST": restLog,
	"EVBS": evbsLog,
	"SCHD": schdLog,
	"UTIL": utilsLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	// Ignore invalid subsystems.
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// pickNoun returns the singular or plural form of a noun depending
// on the count n.
func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

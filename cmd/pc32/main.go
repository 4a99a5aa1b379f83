/*
 * pc32 - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/pc32/config/bootconfig"
	"github.com/rcornwell/pc32/internal/boot"
	"github.com/rcornwell/pc32/internal/monitor"
	logger "github.com/rcornwell/pc32/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "pc32.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDisk := getopt.StringLong("disk", 'd', "", "Disk image (overrides config file)")
	optMemory := getopt.StringLong("memory", 'm', "", "Memory size in KiB (overrides config file)")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	logHandler := logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, false)
	Logger = slog.New(logHandler)
	slog.SetDefault(Logger)

	Logger.Info("pc32 started")

	cfg := &bootconfig.Config{MemoryKiB: 16 * 1024}
	if _, err := os.Stat(*optConfig); err == nil {
		cfg, err = bootconfig.LoadConfigFile(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	} else {
		Logger.Warn("no configuration file found, using defaults", "path", *optConfig)
	}

	if *optDisk != "" {
		cfg.DiskImage = *optDisk
	}
	if *optMemory != "" {
		kib, err := strconv.ParseUint(*optMemory, 10, 32)
		if err != nil {
			Logger.Error("invalid --memory value", "value", *optMemory)
			os.Exit(1)
		}
		cfg.MemoryKiB = uint32(kib)
	}
	if cfg.DiskImage == "" {
		Logger.Error("no disk image specified (DISK directive or --disk)")
		os.Exit(1)
	}

	diskImage, err := os.ReadFile(cfg.DiskImage)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	m := boot.New(diskImage, cfg.MemoryKiB)
	if err := m.Boot(); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	if err := m.ApplyDebug(cfg.Debug); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	logHandler.SetDebug(cfg.Debug["LOG"])
	m.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Got quit signal")
		m.Stop()
		os.Exit(0)
	}()

	if err := monitor.Run(m); err != nil {
		Logger.Error(err.Error())
	}

	Logger.Info("shutting down pc32")
	m.Stop()
}

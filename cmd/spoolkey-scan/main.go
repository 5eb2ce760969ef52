// Copyright 2026 Cascalio Studio
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// spoolkey-scan polls for proximity tags on an ST25R3911B and prints
// what it finds. With -write-text it stores a text record on the next
// detected tag instead.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	st25r "github.com/Cascalio-Studio/spool-key"
	"github.com/Cascalio-Studio/spool-key/scheduler"
	"github.com/Cascalio-Studio/spool-key/spibus"
)

func main() {
	var (
		spiPort   = flag.String("spi", "", "SPI port name (empty picks the first)")
		irqPin    = flag.String("irq", "GPIO25", "interrupt GPIO pin name")
		poll      = flag.Duration("poll", 150*time.Millisecond, "detection polling interval")
		writeText = flag.String("write-text", "", "write this text record to the next tag")
		readText  = flag.Bool("read-text", false, "read the text record from each tag")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		st25r.SetDebugEnabled(true)
	}

	if err := run(*spiPort, *irqPin, *poll, *writeText, *readText); err != nil {
		fmt.Fprintf(os.Stderr, "spoolkey-scan: %v\n", err)
		os.Exit(1)
	}
}

func run(spiPort, irqPin string, poll time.Duration, writeText string, readText bool) error {
	bus, err := spibus.New(spiPort)
	if err != nil {
		return err
	}

	irq, err := spibus.NewIRQLine(irqPin)
	if err != nil {
		_ = bus.Close()
		return err
	}

	ctrl, err := st25r.New(st25r.Config{Bus: bus, IRQ: irq})
	if err != nil {
		_ = irq.Close()
		_ = bus.Close()
		return err
	}
	defer func() { _ = ctrl.Close() }()

	if err := ctrl.Initialize(); err != nil {
		return fmt.Errorf("initializing controller: %w", err)
	}
	defer func() { _ = ctrl.Deinitialize() }()

	icType, rev, err := ctrl.Identity()
	if err != nil {
		return err
	}
	fmt.Printf("chip identity 0x%02X rev %d\n", icType, rev)

	sched, err := scheduler.New(scheduler.Config{Controller: ctrl, PollInterval: poll})
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() { _ = sched.Stop() }()

	if _, err := sched.Submit(scheduler.StartDetection{}); err != nil {
		return err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	fmt.Println("waiting for tags, ctrl-c to stop")
	wrote := false
	for {
		select {
		case <-sigc:
			stats := sched.Stats()
			fmt.Printf("processed %d commands, %d interrupts\n", stats.Processed, stats.Interrupts)
			return nil
		case resp := <-sched.Responses():
			handleResponse(sched, resp, writeText, readText, &wrote)
		}
	}
}

func handleResponse(sched *scheduler.Scheduler, resp scheduler.Response, writeText string, readText bool, wrote *bool) {
	if resp.Err != nil {
		fmt.Printf("command %s failed: %v\n", resp.Command.Name(), resp.Err)
		return
	}

	switch resp.Command.(type) {
	case nil:
		// Detection event.
		fmt.Printf("tag: %v\n", resp.Tag)
		if writeText != "" && !*wrote {
			*wrote = true
			if _, err := sched.Submit(scheduler.WriteText{Text: writeText}); err != nil {
				fmt.Printf("submit failed: %v\n", err)
			}
		} else if readText {
			if _, err := sched.Submit(scheduler.ReadText{}); err != nil {
				fmt.Printf("submit failed: %v\n", err)
			}
		}
	case scheduler.ReadText:
		fmt.Printf("text: %q\n", resp.Text)
	case scheduler.WriteText:
		fmt.Println("text record written")
	}
}

// Command oscore runs the scheduler and virtual-memory simulation core
// against a configuration file, launching a fixed demo process set when
// no synthetic-program file format is plugged in (§1's instruction
// loader is explicitly out of scope for the simulation core; this CLI
// only needs enough of one to drive a demonstration run).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/rcornwell/oscore/config/simconfig"
	"github.com/rcornwell/oscore/metrics"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/process"
	"github.com/rcornwell/oscore/sched"
	"github.com/rcornwell/oscore/sim"
	"github.com/rcornwell/oscore/swapdev"
	"github.com/rcornwell/oscore/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "oscore.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optPolicy := getopt.StringLong("sched", 's', "cfs", "Scheduler: rr, mlq, or cfs")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start an interactive console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create log file:", err)
			os.Exit(1)
		}
	}
	debug := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, &debug))
	slog.SetDefault(log)

	log.Info("oscore started")

	f, err := os.Open(*optConfig)
	if err != nil {
		log.Error("cannot open configuration file", "path", *optConfig, "err", err)
		os.Exit(1)
	}
	cfg, err := simconfig.Parse(f)
	f.Close()
	if err != nil {
		log.Error("configuration error", "err", err)
		os.Exit(1)
	}

	ram := pmem.New(cfg.RAMSize, cfg.FrameSize)
	swapPool := swapdev.NewPool()
	for _, size := range cfg.SwapSizes {
		swapPool.Register(swapdev.New(size, cfg.FrameSize))
	}

	scheduler, err := newScheduler(*optPolicy)
	if err != nil {
		log.Error("scheduler error", "err", err)
		os.Exit(1)
	}

	reg := metrics.New()
	simulator := sim.New(scheduler, ram, swapPool, reg, log)

	for i, ps := range cfg.Processes {
		pid := uint32(i + 1)
		code := demoProgram()
		pcb := process.NewPCB(pid, ps.Path, ps.Priority, code, process.DefaultVMAID, 4096)
		simulator.AddProcess(pcb)
	}

	numCPUs := cfg.NumCPUs
	if numCPUs < 1 {
		numCPUs = 1
	}
	simulator.Run(numCPUs)

	if *optInteractive {
		runConsole(simulator)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	simulator.Stop()
	log.Info("stopped")
}

func newScheduler(policy string) (sched.Scheduler, error) {
	switch policy {
	case "rr":
		return sched.NewRoundRobin(), nil
	case "mlq":
		return sched.NewMultiLevelQueue(), nil
	case "cfs":
		return sched.NewCFS(), nil
	default:
		return nil, fmt.Errorf("unknown scheduler policy %q", policy)
	}
}

// demoProgram stands in for a loaded synthetic program: allocate a
// region, write and read a byte, free it, and finish. Real program
// loading is outside this simulator's scope.
func demoProgram() []process.Instruction {
	return []process.Instruction{
		{Op: process.ALLOC, Arg0: 64, Arg1: 0},
		{Op: process.WRITE, Arg0: 0, Arg1: 0, Arg2: 42},
		{Op: process.READ, Arg0: 0, Arg1: 0},
		{Op: process.CALC},
		{Op: process.FREE, Arg0: 0},
	}
}

// runConsole starts a liner-backed interactive prompt for inspecting and
// killing processes by name while the simulation runs in the
// background.
func runConsole(s *sim.Simulator) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("oscore> ")
		if err != nil {
			return
		}
		line.AppendHistory(input)
		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "killall":
			if len(fields) != 2 {
				fmt.Println("usage: killall <name>")
				continue
			}
			fmt.Printf("killed %d process(es) named %q\n", s.KillAll(fields[1]), fields[1])
		default:
			fmt.Printf("unknown command %q (try: killall <name>, quit)\n", fields[0])
		}
	}
}

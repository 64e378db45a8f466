// Package simconfig parses the simulation configuration file (§6): the
// physical memory size, the swap devices to create, the number of
// logical CPUs and the base time slice, and the set of processes to
// launch and when.
//
// The line-oriented, '#'-comment, whitespace-tokenized grammar and the
// bufio.Scanner-driven parse loop follow
// config/configparser/configparser.go in the teacher repo; this format
// is far simpler than that parser's device model grammar; only the
// keyword-plus-value-tokens structure is retained.
package simconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ProcessSpec is one "process" line: when to launch the program at
// path, and the priority to give it (meaningful to the multi-level
// queue scheduler; ignored by round-robin and CFS, which derive their
// own notion of share from nice/weight instead).
type ProcessSpec struct {
	StartTime int
	Path      string
	Priority  int
}

// Config is a fully parsed configuration file (§6).
type Config struct {
	RAMSize   uint32
	FrameSize uint32
	SwapSizes []uint32
	NumCPUs   int
	TimeSlice int
	Processes []ProcessSpec
}

// defaultFrameSize is used when a config file does not specify one.
const defaultFrameSize = 256

// Parse reads a configuration file from r. Every malformed line is
// collected rather than aborting the parse at the first error, so a
// caller sees every problem in one pass; the returned error is nil only
// if every line parsed cleanly.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{FrameSize: defaultFrameSize}
	var errs error

	scanner := bufio.NewScanner(r)
	lineNo := 0
	wantSwap := 0
	wantProcesses := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		keyword := strings.ToLower(fields[0])
		args := fields[1:]

		var err error
		switch keyword {
		case "ram_size":
			cfg.RAMSize, err = parseUint32(args, 1)
		case "frame_size":
			cfg.FrameSize, err = parseUint32(args, 1)
		case "swap_count":
			var n uint32
			n, err = parseUint32(args, 1)
			wantSwap = int(n)
		case "swap_size":
			var n uint32
			n, err = parseUint32(args, 1)
			if err == nil {
				cfg.SwapSizes = append(cfg.SwapSizes, n)
			}
		case "num_cpus":
			cfg.NumCPUs, err = parseInt(args, 1)
		case "timeslice":
			cfg.TimeSlice, err = parseInt(args, 1)
		case "num_processes":
			wantProcesses, err = parseInt(args, 1)
		case "process":
			var ps ProcessSpec
			ps, err = parseProcess(args)
			if err == nil {
				cfg.Processes = append(cfg.Processes, ps)
			}
		default:
			err = fmt.Errorf("unknown directive %q", fields[0])
		}

		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("reading config: %w", err))
	}

	if wantSwap != len(cfg.SwapSizes) {
		errs = multierror.Append(errs, fmt.Errorf(
			"swap_count declared %d swap device(s) but %d swap_size line(s) given",
			wantSwap, len(cfg.SwapSizes)))
	}
	if wantProcesses != len(cfg.Processes) {
		errs = multierror.Append(errs, fmt.Errorf(
			"num_processes declared %d process(es) but %d process line(s) given",
			wantProcesses, len(cfg.Processes)))
	}

	return cfg, errs
}

func parseUint32(args []string, want int) (uint32, error) {
	if len(args) != want {
		return 0, fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", args[0], err)
	}
	return uint32(v), nil
}

func parseInt(args []string, want int) (int, error) {
	if len(args) != want {
		return 0, fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", args[0], err)
	}
	return v, nil
}

func parseProcess(args []string) (ProcessSpec, error) {
	if len(args) != 3 {
		return ProcessSpec{}, fmt.Errorf("expected 3 arguments (start_time path priority), got %d", len(args))
	}
	start, err := strconv.Atoi(args[0])
	if err != nil {
		return ProcessSpec{}, fmt.Errorf("parsing start_time %q: %w", args[0], err)
	}
	prio, err := strconv.Atoi(args[2])
	if err != nil {
		return ProcessSpec{}, fmt.Errorf("parsing priority %q: %w", args[2], err)
	}
	return ProcessSpec{StartTime: start, Path: args[1], Priority: prio}, nil
}

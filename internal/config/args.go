package config

import (
	"flag"
	"fmt"
	"os"
)

// Port bounds mirror the reference implementation's PORT_MIN/PORT_MAX.
const (
	PortMin = 1024
	PortMax = 65535

	DefaultPort         = 8690
	DefaultSerialNumber = 1
	DefaultNumExecutors = 2
)

// Args is the task board's CLI argument block: application identity,
// grouping, tagging, the admin listen port, and the number of secondary
// executor queues to create.
type Args struct {
	AppID        string
	SerialNumber int
	GroupID      int
	Tags         string
	Port         int
	NumExecutors int
}

func appIDValid(appID string) bool       { return appID != "" }
func portValid(port int) bool            { return PortMin <= port && port <= PortMax }
func serialNumberValid(n int) bool       { return n > 0 }
func numExecutorsValid(n int) bool       { return n >= 0 }

const usage = "Usage: tboard -a app_id [-t tag] [-g groupid] [-n num] [-p port] [-x executors]\n"

// ParseArgs parses argv (excluding the program name) into an Args,
// validating every field in the same order as the reference
// implementation's process_args: appid, port, serial number, then
// executor count. On any failure it prints a message plus the usage
// line to stderr and calls exit(1) — callers that want a non-terminating
// path should use Parse instead.
func ParseArgs(argv []string, exit func(code int)) *Args {
	args, err := Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n%s", err, usage)
		exit(1)
		return nil
	}
	return args
}

// Parse parses argv (excluding the program name) into an Args and
// validates it, returning an error instead of terminating the process.
func Parse(argv []string) (*Args, error) {
	fs := flag.NewFlagSet("tboard", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	appID := fs.String("a", "", "application id")
	serial := fs.Int("n", DefaultSerialNumber, "serial number")
	group := fs.Int("g", 0, "group id")
	tags := fs.String("t", "", "tags")
	port := fs.Int("p", DefaultPort, "admin port")
	nexecs := fs.Int("x", DefaultNumExecutors, "number of secondary executors")

	if err := fs.Parse(argv); err != nil {
		return nil, fmt.Errorf("unknown input option: %w", err)
	}

	args := &Args{
		AppID:        *appID,
		SerialNumber: *serial,
		GroupID:      *group,
		Tags:         *tags,
		Port:         *port,
		NumExecutors: *nexecs,
	}

	if !appIDValid(args.AppID) {
		return nil, fmt.Errorf("appid is not specified")
	}
	if !portValid(args.Port) {
		return nil, fmt.Errorf("invalid port given %d", args.Port)
	}
	if !serialNumberValid(args.SerialNumber) {
		return nil, fmt.Errorf("invalid serial number given %d", args.SerialNumber)
	}
	if !numExecutorsValid(args.NumExecutors) {
		return nil, fmt.Errorf("invalid number of executors given %d", args.NumExecutors)
	}

	return args, nil
}

// Package main defines the golaunch command line using kong.
package main

import (
	"time"
)

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Launch one activity and print its result"`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP control plane"`
	Validate ValidateCmd `cmd:"" help:"Validate a config file"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// RunCmd launches one activity in the foreground.
type RunCmd struct {
	Target    string            `arg:"" help:"Intent name from the config, or a module locator"`
	Config    string            `short:"c" type:"existingfile" help:"Config file path"`
	Param     map[string]string `short:"p" help:"Launch parameter key=value (repeatable). JSON values are decoded."`
	Container string            `help:"Container passed to the presenter"`
	Timeout   time.Duration     `help:"Cancel the activity if it has not ended in time"`
	View      bool              `help:"Print the declarative content while the activity runs"`
}

// ServeCmd runs the server until interrupted.
type ServeCmd struct {
	Config   string `short:"c" required:"" type:"existingfile" help:"Config file path"`
	Schedule string `help:"Extra schedules: intent1,intent2:cron;intent3:cron" placeholder:"SPEC"`
}

// ValidateCmd validates a config file.
type ValidateCmd struct {
	Config string `arg:"" type:"existingfile" help:"Config file path"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

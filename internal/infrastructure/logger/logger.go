// Package logger holds the process-wide leveled loggers for streamvault.
// Everything goes to stdout; the container runtime owns routing and
// retention.
package logger

import (
	"log"
	"os"
)

const flags = log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

var (
	Info  = log.New(os.Stdout, "INFO: ", flags)
	Error = log.New(os.Stdout, "ERROR: ", flags)
	Debug = log.New(os.Stdout, "DEBUG: ", flags)
	Warn  = log.New(os.Stdout, "WARN: ", flags)
)

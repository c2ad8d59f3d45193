package daemon

import "flag"

var (
	// Debug is set with the -D flag. When true the service logs to stderr
	// instead of its logfile.
	Debug bool
)

func init() {
	flag.BoolVar(&Debug, "D", false, "Debug mode. Logs to stderr instead of the logfile.")
}

package src

import (
	"fmt"
	"runtime"
)

// Version stores the current version of the service. It is set during
// building.
var Version = "dev-unreleased"

func printVersionInformation() {
	fmt.Printf("MPD artwork service (mpdart) %s\n", Version)
	fmt.Printf("Built with %s\n", runtime.Version())
}

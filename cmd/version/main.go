package main

import (
	"fmt"
	"os"

	"github.com/mozilla-services/cjms-sub000/pkg/version"
)

// Writes version.yaml from the build environment so the web process can serve
// __version__.
func main() {
	info := &version.Info{
		Commit:  os.Getenv("COMMIT"),
		Source:  os.Getenv("SOURCE"),
		Version: os.Getenv("VERSION"),
	}
	if err := version.Write(version.DefaultFile, info); err != nil {
		fmt.Fprintf(os.Stderr, "version: %v\n", err)
		os.Exit(1)
	}
}

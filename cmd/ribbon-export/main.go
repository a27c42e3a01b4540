// Command ribbon-export renders an ambiguity report over its ribbon as KML
// (overview, single-packet detail or the bare ribbon) or GeoJSON.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/version"
)

const toolName = "ribbon-export"

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%s: %v", toolName, err)
	}
	if opts.showVersion {
		fmt.Println(version.String(toolName))
		return
	}

	if err := run(fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("%s: %v", toolName, err)
	}
}

// Command ribbon-runs lists, inspects, compares and deletes the analysis
// runs recorded by ribbon-analyse -db.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/ribbon/internal/version"
)

const toolName = "ribbon-runs"

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

	if err := run(os.Stdout, opts); err != nil {
		log.Fatalf("%s: %v", toolName, err)
	}
}

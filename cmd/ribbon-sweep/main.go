// Command ribbon-sweep runs the ambiguity analysis over a grid of distance
// thresholds and index gaps and writes one CSV row per combination.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/version"
)

const toolName = "ribbon-sweep"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("%s: %v", toolName, err)
	}
}

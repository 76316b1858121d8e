package main

import (
	"flag"
	"fmt"
	"os"

	"anonchat/internal/di"
	"anonchat/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "force debug log level")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "anonchatd: %s\n", err)
		os.Exit(1)
	}
}

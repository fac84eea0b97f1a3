package main

import (
	"flag"
	"os"

	"github.com/louisbranch/places/internal/platform/config"
	"github.com/louisbranch/places/internal/tools/jwtkey"
)

func main() {
	cfg, err := jwtkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := jwtkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate key: %v", err)
	}
}

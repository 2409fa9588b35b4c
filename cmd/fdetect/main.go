package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/lukaszgryglicki/fdetect/internal/fdetect"
)

func main() {
	fdetect.Debug = os.Getenv("DEBUG") != ""
	fdetect.PNG = os.Getenv("PNG") != ""
	fdetect.TIFF = os.Getenv("TIFF") != ""
	fdetect.RAW = os.Getenv("RAW") != ""
	fdetect.ZSTD = os.Getenv("ZSTD") != ""
	fdetect.GIF = os.Getenv("GIF") != ""
	profile := os.Getenv("PROFILE") != ""
	if profile {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := "configs/config.json"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}
	if err := fdetect.RunContext(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

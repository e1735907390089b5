package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lukaszgryglicki/raytracer/internal/config"
	"github.com/lukaszgryglicki/raytracer/internal/flatscene"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
	"github.com/lukaszgryglicki/raytracer/internal/logging"
	"github.com/lukaszgryglicki/raytracer/internal/render"
)

// env holds the switches read from the environment.
type env struct {
	workers int
	raw     bool
	shuffle bool
	dumpBVH bool
	dump    string // msgpack scene dump path
}

func main() {
	logging.Debug = os.Getenv("DEBUG") != ""
	level := slog.LevelInfo
	if logging.Debug {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	e := env{
		raw:     os.Getenv("RAW") != "",
		shuffle: os.Getenv("SHUFFLE") != "",
		dumpBVH: os.Getenv("DUMP_BVH") != "",
		dump:    os.Getenv("DUMP"),
	}
	if s := os.Getenv("WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			fmt.Printf("Error: WORKERS=%q is not a worker count\n", s)
			os.Exit(1)
		}
		e.workers = n
	}
	if os.Getenv("PROFILE") != "" {
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

	cfg := "scenes/default.json"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, e); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, e env) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if e.workers > 0 {
		cfg.Render.Workers = e.workers
	}
	if e.shuffle {
		cfg.Render.Shuffle = true
	}
	sc, err := cfg.Build()
	if err != nil {
		return errors.Wrap(err, "build scene")
	}
	if e.dumpBVH {
		for _, r := range sc.World.Roots {
			kernel.DumpBVH(os.Stdout, sc.World, r)
		}
	}

	buf, err := flatscene.Encode(sc.World, &sc.Camera)
	if err != nil {
		return err
	}
	if e.dump != "" {
		if err := buf.WriteFile(e.dump); err != nil {
			return err
		}
		logging.DebugLog("Saved scene buffers: %s (%d bytes)", e.dump, buf.Size())
	}

	svc, err := render.NewService(buf, render.Options{
		Workers:     cfg.Render.Workers,
		StripHeight: cfg.Render.StripHeight,
		Shuffle:     cfg.Render.Shuffle,
		Seed:        cfg.Render.Seed,
	})
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.Start(); err != nil {
		return err
	}
	start := time.Now()
	canvas, err := svc.Render(ctx)
	if err != nil {
		return err
	}
	stats := svc.Stats()
	logging.DebugLog("Rendered %dx%d in %s, rays: %s", canvas.Width, canvas.Height, time.Since(start), stats.String())

	out := cfg.Render.Out
	switch strings.ToLower(filepath.Ext(out)) {
	case ".tif", ".tiff":
		err = canvas.SaveTIFF(out, cfg.Render.Gamma)
	default:
		err = canvas.SavePNG16(out, cfg.Render.Gamma)
	}
	if err != nil {
		return err
	}
	logging.DebugLog("Saved image: %s", out)
	if e.raw {
		rawPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".raw"
		if err := canvas.SaveRawRGB64(rawPath); err != nil {
			return err
		}
		logging.DebugLog("Saved raw image: %s", rawPath)
	}
	return nil
}

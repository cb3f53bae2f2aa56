// Command dewarplut builds the coordinate map of a camera model, exports
// it as TIFF and writes a before/after PNG of one frame.
//
// Example:
//
//	dewarplut -mode fisheye -set fisheye_k1=0.05 -lut fisheye.tiff -png fisheye.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/dewarp"
	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/control"
	_ "github.com/gogpu/dewarp/gpu" // register the GPU remap stage
	"github.com/gogpu/dewarp/internal/source"
	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/preview"
	"github.com/gogpu/dewarp/remap"
	"github.com/gogpu/dewarp/video"
)

// assignments collects repeated -set name=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("want name=value, got %q", v)
	}
	*a = append(*a, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var sets assignments
	var (
		mode    = flag.String("mode", "undistort", "camera model: linear, undistort, fisheye, omnidir")
		src     = flag.String("source", "testcard://1280x720?frames=1", "video path or URI")
		lutOut  = flag.String("lut", "lut.tiff", "coordinate map output (TIFF, empty to skip)")
		pngOut  = flag.String("png", "dewarp.png", "side by side output (PNG, empty to skip)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Var(&sets, "set", "parameter assignment name=value (repeatable)")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dewarp.SetLogger(logger)
	defer func() {
		if f := dewarp.RegisteredStageFactory(); f != nil {
			f.Close()
		}
	}()

	kind, err := camera.ParseKind(*mode)
	if err != nil {
		log.Print(err)
		return 2
	}
	ctrl := control.NewWithMode(kind)
	for _, a := range sets {
		name, value, _ := strings.Cut(a, "=")
		v, err := strconv.ParseFloat(value, 64)
		if err == nil {
			_, err = ctrl.Set(name, v)
		}
		if err != nil {
			log.Printf("-set %s: %v", a, err)
			return 2
		}
	}

	ctx := context.Background()
	dec, err := source.Open(ctx, *src, logger)
	if err != nil {
		log.Printf("open %s: %v", *src, err)
		return 1
	}
	defer dec.Close()
	frame, err := dec.Next(ctx)
	if err != nil {
		log.Printf("first frame: %v", err)
		return 1
	}

	m, err := lut.New(frame.Width, frame.Height)
	if err != nil {
		log.Print(err)
		return 1
	}
	if _, err := ctrl.Rebuild(m); err != nil {
		log.Printf("build map: %v", err)
		return 1
	}
	_, elapsed := ctrl.Stats()
	log.Printf("%s map %dx%d built in %v", kind.Title(), m.Width, m.Height, elapsed)

	if *lutOut != "" {
		if err := writeTIFF(*lutOut, m); err != nil {
			log.Print(err)
			return 1
		}
		log.Printf("coordinate map saved to %s", *lutOut)
	}
	if *pngOut == "" {
		return 0
	}
	if err := writePreview(*pngOut, m, frame); err != nil {
		log.Print(err)
		return 1
	}
	log.Printf("preview saved to %s", *pngOut)
	return 0
}

// writePreview remaps frame through m and saves both surfaces side by side.
func writePreview(path string, m *lut.CoordinateMap, frame *video.Frame) error {
	stage, err := dewarp.NewStage(frame.Width, frame.Height)
	if err != nil {
		return err
	}
	defer stage.Close()
	if err := stage.UploadLUT(m); err != nil {
		return err
	}
	if err := stage.Process(frame); err != nil {
		return err
	}
	a, b := remap.NewSurface(stage), remap.NewSurface(stage)
	if err := stage.ReadSurfaces(a, b); err != nil {
		return err
	}
	img, err := preview.Compose(a, b)
	if err != nil {
		return err
	}
	return preview.SavePNG(path, img)
}

func writeTIFF(path string, m *lut.CoordinateMap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lut.WriteTIFF(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

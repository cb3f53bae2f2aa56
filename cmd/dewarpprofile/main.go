// Command dewarpprofile plots the radial profile of the default model of
// every distortion mode, or of one mode with custom parameters.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/control"
	"github.com/gogpu/dewarp/profile"
)

func main() {
	var (
		mode    = flag.String("mode", "", "single camera model (default: all)")
		params  = flag.String("set", "", "comma separated name=value assignments for -mode")
		width   = flag.Int("width", 1920, "image width")
		height  = flag.Int("height", 1080, "image height")
		samples = flag.Int("samples", 128, "points per profile")
		diag    = flag.Bool("diagonal", false, "walk toward the corner instead of the right edge")
		output  = flag.String("output", "profile.png", "output file")
	)
	flag.Parse()

	dir := profile.Horizontal
	if *diag {
		dir = profile.Diagonal
	}

	kinds := []camera.Kind{camera.KindUndistort, camera.KindFisheye, camera.KindOmnidir}
	if *mode != "" {
		k, err := camera.ParseKind(*mode)
		if err != nil {
			log.Fatal(err)
		}
		kinds = []camera.Kind{k}
	}

	var series []profile.Series
	for _, k := range kinds {
		ctrl := control.NewWithMode(k)
		if *mode != "" && *params != "" {
			for _, a := range strings.Split(*params, ",") {
				name, value, _ := strings.Cut(a, "=")
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					log.Fatalf("-set %s: %v", a, err)
				}
				if _, err := ctrl.Set(name, v); err != nil {
					log.Fatalf("-set %s: %v", a, err)
				}
			}
		}
		s, err := profile.Radial(ctrl.Model(), *width, *height, *samples, dir)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%s: max displacement %.1f px", s.Name, s.MaxDisplacement())
		series = append(series, s)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatal(err)
	}
	if err := profile.WritePNG(f, "Radial distortion profile", series...); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	log.Printf("profile saved to %s", *output)
}

// Package dewarp plays a video while correcting lens distortion in real
// time.
//
// # Overview
//
// Every frame goes through two passes. The first converts planar YUV 4:2:0
// into RGBA (surface A). The second samples surface A through a coordinate
// map built from a camera model (surface B). Both surfaces are presented
// side by side.
//
//	decoder --Frame--> Stage.Process --A, B--> Presenter
//	                       ^
//	controller --dirty--> lut.CoordinateMap --UploadLUT
//
// The coordinate map is rebuilt only when a parameter or the mode changes.
//
// # Quick Start
//
//	card, _ := video.NewTestCard(video.TestCardOptions{Width: 640, Height: 480})
//	p, err := dewarp.New(card, dewarp.WithMode(camera.KindFisheye))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//	err = p.Run(ctx)
//
// # Stages
//
// A Player uses the stage given by WithStage, otherwise the registered
// StageFactory, otherwise the CPU stage from package remap. Importing
// package gpu registers the GPU factory:
//
//	import _ "github.com/gogpu/dewarp/gpu"
//
// # Logging
//
// Logging is silent by default. SetLogger enables it for this package and
// the GPU factory.
package dewarp

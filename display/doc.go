// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package display presents player frames in a gogpu window.
//
// The data flow is:
//
//	Player (surfaces A, B) -> Canvas.Present (side by side, CPU) -> GPU texture -> Window
//
// Canvas implements dewarp.Presenter. Present only composes; the upload
// happens in RenderTo, which must run inside the window's draw callback:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    if err := player.Step(ctx); err != nil { ... }
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// Creating a Canvas hands the window's device to the registered stage
// factory, so the GPU remap stage and the window share one device when
// the canvas exists before the player.
//
// Canvas is NOT safe for concurrent use.
package display

package parallel

// minBandRows keeps bands large enough that scheduling stays cheap next
// to the per-pixel work.
const minBandRows = 16

// Rows splits [0, height) into contiguous bands and calls fn(y0, y1) for
// each band on the pool. fn must be safe to call concurrently for
// disjoint bands. A nil pool runs a single band inline.
func Rows(p *WorkerPool, height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if p == nil || height < 2*minBandRows {
		fn(0, height)
		return
	}
	bands := min(p.Workers()*2, height/minBandRows)
	size := (height + bands - 1) / bands

	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += size {
		y1 := min(y0+size, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

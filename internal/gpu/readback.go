//go:build !nogpu

package gpu

// copyPitchAlignment is the row alignment required for texture to buffer
// copies.
const copyPitchAlignment = 256

// alignedBytesPerRow rounds a row of RGBA8 pixels up to copyPitchAlignment.
func alignedBytesPerRow(width uint32) uint32 {
	bpr := width * 4
	return (bpr + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// stripRows copies h rows of rowBytes each from src, whose rows are pitch
// bytes apart, into dst whose rows are dstStride bytes apart.
func stripRows(dst []byte, dstStride int, src []byte, pitch, rowBytes, h int) {
	if pitch == rowBytes && dstStride == rowBytes {
		copy(dst[:rowBytes*h], src)
		return
	}
	for row := 0; row < h; row++ {
		copy(dst[row*dstStride:row*dstStride+rowBytes], src[row*pitch:row*pitch+rowBytes])
	}
}

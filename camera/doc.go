// Package camera evaluates lens distortion models.
//
// A [Model] is one of [Linear], [Undistort], [Fisheye] or [Omnidir]. For
// every output pixel of a corrected image a [Mapper] returns the normalized
// coordinate in the distorted source frame that the pixel should sample.
// The non-linear models follow the rectification-map conventions of common
// computer vision libraries: the camera matrix has a single focal length and
// its principal point at the image center, the rectified view reuses the same
// camera matrix, and the rectification rotation is the identity.
//
// Coordinates returned by [Mapper.Map] are not clamped. [Mapper.Source]
// applies the zoom/crop transform and clamps to [0, 1], so out-of-domain
// pixels sample the image border.
package camera

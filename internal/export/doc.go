// Package export writes engine snapshots to files.
//
// Image formats are chosen from the file extension: .png, .tif/.tiff and
// .bmp produce 8-bit RGBA images, optionally scaled and annotated with a
// telemetry overlay. .rgbf.zst stores the float raster losslessly as a
// zstd-compressed stream.
package export

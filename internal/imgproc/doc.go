// Package imgproc holds the typed image stages used by frame detection and
// post-capture enhancement. Every stage is a function over explicit buffers
// (Gray for single-channel data, *image.NRGBA for colour) and returns a new
// buffer; inputs are never modified. Gray buffers come from mempool and are
// returned with Release, usually through a mempool.Arena scoped to a frame.
package imgproc

// Package pipeline runs the per-frame document search.
//
// A Session owns all cross-frame state of one camera session (calibrator,
// seeker, stabilizer) and turns a Frame into at most one Result. A
// Controller wraps a Session for live use: it admits every Nth frame, drops
// frames while busy or capturing, and publishes results through a bounded
// channel that discards the oldest entry instead of blocking.
package pipeline

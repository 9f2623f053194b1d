// Package barcode locates the QR code printed on the notebook cover.
//
// Decoding goes through the Backend interface so tests can substitute a
// fake; the default backend uses gozxing. The Correlator turns a decode into
// the document side the code sits on, and the Tracker smooths that signal
// across frames for display.
package barcode

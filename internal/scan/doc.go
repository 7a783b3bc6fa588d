// Package scan defines the domain vocabulary shared by every layer of the
// pipeline: page statuses, geometry, paper formats, color profiles,
// recognition tasks, and the contract of the opaque imaging/OCR engine.
//
// The package is deliberately free of storage and orchestration concerns so
// that the store, the pipeline, and the export writers can all depend on it
// without depending on each other.
package scan

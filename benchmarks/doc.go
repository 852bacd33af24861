// Package benchmarks measures encode and decode throughput of a scene graph
// across compression codecs and JSON drivers. Run with go test -bench . ./benchmarks.
package benchmarks

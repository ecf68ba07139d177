// Package mmfile provides platform-specific helpers for memory-mapping arena files.
package mmfile

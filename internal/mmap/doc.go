// Package mmap maps local input files read-only into memory.
//
// A dataset file is decoded once, front to back, so mappings are advised for
// sequential access by default. On Windows advice is a no-op.
package mmap

// Package fs abstracts the file operations behind local output blobs so tests
// can inject failures.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs or renames
//
// Production code uses fs.Default. Tests inject a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".csv", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context: local file calls are not interruptible.
package fs

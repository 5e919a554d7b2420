// Package fs abstracts the file operations of the local blob store so tests
// can inject write, sync, close and rename failures.
//
// Production code uses [Default], which is [LocalFS]. Tests wrap it:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 4})
//
// Operations take no context.Context; local file calls cannot be interrupted
// at the syscall level. Remote storage goes through blobstore, which does
// take one.
package fs

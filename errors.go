package xv6fs

import "errors"

// Sentinel errors returned by the exposed operations in icache, dirent, and
// namei. A nil handle with a nil error means "not found" per the calling
// convention described in spec.md's error handling design; these values
// cover the remaining invalid-request and would-duplicate cases.
var (
	// ErrInvalidOffset is returned by readi/writei when the requested
	// offset is past the end of the file, or off+n overflows.
	ErrInvalidOffset = errors.New("xv6fs: offset out of range")

	// ErrFileTooLarge is returned by bmap when a requested block index is
	// beyond MAXFILE.
	ErrFileTooLarge = errors.New("xv6fs: file too large")

	// ErrNoDevice is returned by readi/writei on a device inode whose
	// major number has no entry in the device switch table.
	ErrNoDevice = errors.New("xv6fs: no such device")

	// ErrExists is returned by dirlink when the name is already present in
	// the directory.
	ErrExists = errors.New("xv6fs: name already exists")

	// ErrNotDir is returned when an operation that requires a directory
	// inode is given one of a different type.
	ErrNotDir = errors.New("xv6fs: not a directory")

	// ErrNoInodes is returned by ialloc when every on-disk inode is in
	// use.
	ErrNoInodes = errors.New("xv6fs: out of inodes")
)

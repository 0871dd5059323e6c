package pwsfile

import "errors"

// Error kinds returned by this package. End of file is not one of
// them: it is io.EOF, recovered internally at the record-loop boundary
// and never surfaced to callers.
var (
	ErrWrongPassphrase        = errors.New("pwsfile: wrong passphrase")
	ErrUnsupportedFileVersion = errors.New("pwsfile: unsupported file version")
	ErrCorruptFile            = errors.New("pwsfile: corrupt file")
	ErrReadOnly               = errors.New("pwsfile: database is read-only")
	ErrConcurrentModification = errors.New("pwsfile: concurrent modification")
	ErrConcurrentIteration    = errors.New("pwsfile: concurrent iteration")
	ErrDisposed               = errors.New("pwsfile: disposed")
	ErrIndexOutOfRange        = errors.New("pwsfile: index out of range")
)

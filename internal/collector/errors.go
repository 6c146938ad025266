package collector

import "github.com/roadrunner-server/errors"

// ErrNullLogStack means a test was flushed but no stack was started at its
// index. A stack is only flushed once per test, so this points at a
// collector bug. Match it with errors.Is.
var ErrNullLogStack = errors.Str("domain exception: log stack null")

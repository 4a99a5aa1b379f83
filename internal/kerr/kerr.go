// Package kerr defines the core's error taxonomy.
//
// Copyright 2024, Richard Cornwell
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
package kerr

import "fmt"

// Kind is one of the core's recoverable or fatal error categories.
type Kind int

const (
	NotFound Kind = iota + 1 // file/task/directory entry absent
	Full                     // disk full, directory full, task table full
	Exists                   // rename target already present
	Invalid                  // ELF magic mismatch, malformed name
	Unsupported              // unknown syscall number
	Fatal                    // CPU exception 0-31 in kernel context
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Full:
		return "full"
	case Exists:
		return "exists"
	case Invalid:
		return "invalid"
	case Unsupported:
		return "unsupported"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the operation that raised it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind for op.
func New(op string, kind Kind) error {
	return &Error{Op: op, Kind: kind}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: loader.go
Description: Bounded buffer loader for the Akaylee Driver. Reads inputs from streams
and files into owned buffers that never grow past the configured ceiling. Oversized
inputs are truncated silently; missing files and read failures are reported through
sentinel errors so the invoker can apply the configured read policy.
*/

package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kleascm/akaylee-driver/pkg/core"
)

var (
	// ErrPathUnavailable is returned when an input path cannot be opened
	ErrPathUnavailable = errors.New("path unavailable")

	// ErrReadFailure is returned when reading an open input fails before end of stream
	ErrReadFailure = errors.New("read failure")
)

// chunkSize matches the stdio BUFSIZ used by the classic drivers
const chunkSize = 8192

// ReadBounded reads r in fixed-size chunks until it is exhausted or maxLen bytes
// have been collected. The result is never longer than maxLen; an empty source
// yields an empty buffer and a nil error.
func ReadBounded(r io.Reader, maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for buf.Len() < maxLen {
		want := len(chunk)
		if rest := maxLen - buf.Len(); rest < want {
			want = rest
		}
		n, err := r.Read(chunk[:want])
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return buf.Bytes(), fmt.Errorf("%w: %v", ErrReadFailure, err)
		}
	}

	if buf.Len() == 0 {
		return []byte{}, nil
	}
	return buf.Bytes(), nil
}

// ReadFile opens path read-only and loads at most maxLen bytes from it.
// The file handle is closed before ReadFile returns.
func ReadFile(path string, maxLen int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPathUnavailable, path, err)
	}
	defer f.Close()

	data, err := ReadBounded(f, maxLen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// ReadOnce performs a single read into buf, the reusable persistent-mode buffer.
// Reaching end of stream without data is a successful zero-length read.
func ReadOnce(r io.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	return n, nil
}

// Loader reads inputs under one ceiling and one read policy
type Loader struct {
	MaxLen int
	Policy core.ReadPolicy
}

// NewLoader creates a loader, falling back to the default ceiling for non-positive values
func NewLoader(maxLen int, policy core.ReadPolicy) *Loader {
	if maxLen <= 0 {
		maxLen = core.DefaultMaxLen
	}
	if policy == "" {
		policy = core.ReadPolicyLenient
	}
	return &Loader{MaxLen: maxLen, Policy: policy}
}

// Load reads a file input
func (l *Loader) Load(path string) ([]byte, error) {
	return ReadFile(path, l.MaxLen)
}

// LoadStream reads a stream input such as standard input
func (l *Loader) LoadStream(r io.Reader) ([]byte, error) {
	return ReadBounded(r, l.MaxLen)
}

// Fatal reports whether err must stop the run under the loader's policy.
// Missing paths are never fatal; read failures are fatal only in strict mode.
func (l *Loader) Fatal(err error) bool {
	if err == nil {
		return false
	}
	return l.Policy == core.ReadPolicyStrict && errors.Is(err, ErrReadFailure)
}

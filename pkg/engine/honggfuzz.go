/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: honggfuzz.go
Description: HonggFuzz-style input iterator. Outside honggfuzz's persistent protocol
HF_ITER yields the content of standard input once and then reports exhaustion; this
iterator does the same with a bounded read.
*/

package engine

import (
	"io"

	"github.com/kleascm/akaylee-driver/pkg/input"
	"github.com/sirupsen/logrus"
)

// StdinIterator implements interfaces.InputIterator
type StdinIterator struct {
	r      io.Reader
	maxLen int
	done   bool
	logger logrus.FieldLogger
}

// NewStdinIterator creates an iterator that yields one bounded read of r
func NewStdinIterator(r io.Reader, maxLen int, logger logrus.FieldLogger) *StdinIterator {
	if logger == nil {
		logger = discardLogger()
	}
	return &StdinIterator{r: r, maxLen: maxLen, logger: logger}
}

// Next returns the stream content on the first call and false afterwards
func (it *StdinIterator) Next() ([]byte, bool) {
	if it.done {
		return nil, false
	}
	it.done = true

	data, err := input.ReadBounded(it.r, it.maxLen)
	if err != nil {
		it.logger.WithError(err).Warn("Failed to read iterator input")
		return nil, false
	}
	return data, true
}

// SliceIterator yields a fixed sequence of inputs, in order
type SliceIterator struct {
	inputs [][]byte
	pos    int
}

// NewSliceIterator creates an iterator over inputs
func NewSliceIterator(inputs ...[]byte) *SliceIterator {
	return &SliceIterator{inputs: inputs}
}

// Next returns the next input
func (it *SliceIterator) Next() ([]byte, bool) {
	if it.pos >= len(it.inputs) {
		return nil, false
	}
	data := it.inputs[it.pos]
	it.pos++
	return data, true
}

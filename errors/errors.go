/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package errors

import "strings"

// Error extends the standard error with a CodeError classification and a
// parent chain, so a caller can ask "is this a Transport transient error"
// without string matching.
type Error interface {
	error

	Code() CodeError
	IsCode(code CodeError) bool
	HasCode(code CodeError) bool

	Add(parent ...error)
	HasParent() bool
	GetParent() []error

	Unwrap() []error
}

type ers struct {
	c CodeError
	e string
	p []Error
}

func (e *ers) Code() CodeError {
	return e.c
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.p {
		if p.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Add(parent ...error) {
	for _, v := range parent {
		if v == nil {
			continue
		}
		e.p = append(e.p, Make(v))
	}
}

func (e *ers) HasParent() bool {
	return len(e.p) > 0
}

func (e *ers) GetParent() []error {
	r := make([]error, 0, len(e.p))
	for _, p := range e.p {
		r = append(r, p)
	}
	return r
}

func (e *ers) Error() string {
	if e.e != "" {
		return e.e
	}
	return e.c.Message()
}

func (e *ers) Unwrap() []error {
	return e.GetParent()
}

// New builds an Error with the given code, message and parents.
func New(code CodeError, message string, parent ...error) Error {
	e := &ers{c: code, e: message}
	e.Add(parent...)
	return e
}

// Make wraps a plain error into Error, returning it unchanged if it already
// implements Error.
func Make(err error) Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		return e
	}
	return &ers{c: UnknownError, e: err.Error()}
}

// Is reports whether err (or any ancestor) carries the given code.
func Is(err error, code CodeError) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(Error); ok {
		return e.HasCode(code)
	}
	return false
}

// ContainsString reports whether err's message, or any parent's, contains s.
func ContainsString(err error, s string) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), s) {
		return true
	}
	if e, ok := err.(Error); ok {
		for _, p := range e.GetParent() {
			if ContainsString(p, s) {
				return true
			}
		}
	}
	return false
}

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

// Package logger wraps logrus with the Fields helper used across the reactor
// core. Transport-transient conditions (EAGAIN, WANT_READ/WRITE, EINTR) log
// at Debug; buffer exhaustion and queue-full drops log at Warn; resource
// failures log at Error. The hot path itself never logs.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal structured-logging surface the reactor core depends
// on. A nil *Logger is valid and silently discards everything.
type Logger struct {
	l *logrus.Logger
}

// New builds a Logger writing to w (os.Stderr if w is nil) at the given
// level.
func New(w io.Writer, level logrus.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{l: l}
}

func (g *Logger) entry(f Fields) *logrus.Entry {
	if g == nil || g.l == nil {
		return nil
	}
	if f == nil {
		return logrus.NewEntry(g.l)
	}
	return g.l.WithFields(f.Logrus())
}

func (g *Logger) Debug(msg string, f Fields) {
	if e := g.entry(f); e != nil {
		e.Debug(msg)
	}
}

func (g *Logger) Warn(msg string, f Fields) {
	if e := g.entry(f); e != nil {
		e.Warn(msg)
	}
}

func (g *Logger) Error(msg string, f Fields) {
	if e := g.entry(f); e != nil {
		e.Error(msg)
	}
}

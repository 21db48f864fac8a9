// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package console prints the user-facing outcome of a run.
package console

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Categories used in failure blocks.
const (
	CategoryAuth  = "Authentication"
	CategoryGraph = "Graph request"
)

// Reporter writes coloured result lines to out.
type Reporter struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
}

// NewReporter creates a Reporter. Whether colour is emitted follows
// fatih/color's detection (NO_COLOR, stdout attached to a terminal).
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:     out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

// Success prints a single success line.
func (r *Reporter) Success(msg string) {
	r.success.Fprintln(r.out, msg)
}

// Failure prints the two-line error block:
//
//	<category> error
//	  Code: <code>; Message: <message>
func (r *Reporter) Failure(category, code, message string) {
	r.failure.Fprintf(r.out, "%s error\n", category)
	r.failure.Fprintf(r.out, "  Code: %s; Message: %s\n", code, message)
}

// WaitForKey prompts and blocks until a line (or EOF) arrives on in.
func (r *Reporter) WaitForKey(in io.Reader) {
	fmt.Fprintln(r.out, "Hit any key to exit...")
	_, _ = bufio.NewReader(in).ReadByte()
}

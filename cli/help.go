// Copyright (c) 2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/exp/slices"
	"golang.org/x/term"

	"github.com/ransim/ran-ns/logger"
)

//go:embed README.md
var cliHelpFile string

var (
	cmdHeaderPattern = regexp.MustCompile(`^### (\S+)`)
	listItemPattern  = regexp.MustCompile(`^\* \[([a-z]+)\]\(#[a-z]+\)`)
)

const (
	defaultTermWidth = 80
	helpIndent       = "  "
)

type helpBlockKind int

const (
	helpText helpBlockKind = iota
	helpDefinition
	helpExample
)

type helpBlock struct {
	kind  helpBlockKind
	lines []string
}

// helpEntry is the help of one command, taken from its section in the CLI reference.
type helpEntry struct {
	summary string
	blocks  []helpBlock
}

type Help struct {
	termWidth uint
	order     []string
	entries   map[string]*helpEntry
}

func newHelp() Help {
	h := Help{
		termWidth: defaultTermWidth,
		entries:   map[string]*helpEntry{},
	}
	h.parse(cliHelpFile)
	h.update()
	return h
}

func (help *Help) update() {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		width, _, err := term.GetSize(fd)
		logger.PanicIfError(err, "Could not get terminal size.")
		if width > 20 {
			help.termWidth = uint(width)
		}
	}
}

// outputGeneralHelp lists the commands in reference order with their one-line summary.
func (help *Help) outputGeneralHelp() string {
	help.update()
	width := 0
	for _, c := range help.order {
		if len(c) > width {
			width = len(c)
		}
	}
	var sb strings.Builder
	for _, c := range help.order {
		summary := help.entries[c].summary
		wrapped := strings.Split(wordwrap.WrapString(summary, help.termWidth-uint(width)-3), "\n")
		for i, line := range wrapped {
			name := ""
			if i == 0 {
				name = c
			}
			sb.WriteString(fmt.Sprintf("%-*s   %s\n", width, name, line))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(wordwrap.WrapString("For detailed help per command, use: 'help <command>'", help.termWidth))
	sb.WriteString("\n")
	return sb.String()
}

func (help *Help) outputCommandHelp(command string) string {
	help.update()
	e, ok := help.entries[command]
	if !ok {
		return fmt.Sprintf("%s: no such command, see 'help'\n", command)
	}

	var sb strings.Builder
	sb.WriteString(command + "\n")
	for _, b := range e.blocks {
		switch b.kind {
		case helpDefinition:
			sb.WriteString("\nDefinition:\n")
			for _, line := range b.lines {
				sb.WriteString(helpIndent + helpIndent + line + "\n")
			}
		case helpExample:
			sb.WriteString("\nExample:\n")
			for _, line := range b.lines {
				sb.WriteString(helpIndent + helpIndent + line + "\n")
			}
		default:
			text := markdownUnquote(strings.Join(b.lines, " "))
			for _, line := range strings.Split(wordwrap.WrapString(text, help.termWidth-uint(len(helpIndent))), "\n") {
				sb.WriteString(helpIndent + line + "\n")
			}
		}
	}
	return sb.String()
}

// parse reads the command list and the per-command sections of the reference. Commands found in
// sections but not in the list are appended to the order.
func (help *Help) parse(md string) {
	var cur *helpEntry
	var block *helpBlock
	inCode := false

	flush := func() {
		if cur != nil && block != nil && len(block.lines) > 0 {
			cur.blocks = append(cur.blocks, *block)
			if block.kind == helpText && len(cur.summary) == 0 {
				cur.summary = firstSentence(markdownUnquote(strings.Join(block.lines, " ")))
			}
		}
		block = nil
	}

	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, " \t")

		if !inCode {
			if m := listItemPattern.FindStringSubmatch(line); m != nil && cur == nil {
				help.order = append(help.order, m[1])
				continue
			}
			if m := cmdHeaderPattern.FindStringSubmatch(line); m != nil {
				flush()
				cur = &helpEntry{}
				help.entries[m[1]] = cur
				if !slices.Contains(help.order, m[1]) {
					help.order = append(help.order, m[1])
				}
				continue
			}
		}
		if cur == nil {
			continue
		}

		switch {
		case line == "```shell" || line == "```bash":
			flush()
			kind := helpDefinition
			if line == "```bash" {
				kind = helpExample
			}
			block = &helpBlock{kind: kind}
			inCode = true
		case line == "```":
			flush()
			inCode = false
		case inCode:
			block.lines = append(block.lines, line)
		case len(strings.TrimSpace(line)) == 0:
			flush()
		default:
			if block == nil {
				block = &helpBlock{kind: helpText}
			}
			block.lines = append(block.lines, strings.TrimSpace(line))
		}
	}
	flush()

	// commands listed without a section
	help.order = slices.DeleteFunc(help.order, func(c string) bool {
		_, ok := help.entries[c]
		return !ok
	})
}

func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	return strings.ReplaceAll(md, "`", "")
}

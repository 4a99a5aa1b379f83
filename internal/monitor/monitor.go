/*
 * pc32 - Minimal read-only diagnostic console.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package monitor is a line-edited, read-only diagnostic console over
// a booted Machine: ps/ls/cat/free/reg, nothing that mutates kernel state.
// It is deliberately not the external line shell (spec.md 1 names
// that out of scope) — only enough introspection to drive the core
// standalone, in the teacher's liner-based console idiom.
package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/pc32/internal/boot"
)

// Run starts a blocking read-eval-print loop against m. It returns
// when the user aborts (Ctrl-D) or types "quit".
func Run(m *boot.Machine) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return complete(partial)
	})

	for {
		cmd, err := line.Prompt("pc32> ")
		if err == nil {
			line.AppendHistory(cmd)
			if strings.TrimSpace(cmd) == "quit" {
				return nil
			}
			if out, cerr := dispatch(m, cmd); cerr != nil {
				fmt.Println("error: " + cerr.Error())
			} else if out != "" {
				fmt.Println(out)
			}
			continue
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		return err
	}
}

var commands = []string{"ps", "ls", "cat", "free", "reg", "quit"}

func complete(partial string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, partial) {
			out = append(out, c)
		}
	}
	return out
}

func dispatch(m *boot.Machine, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch fields[0] {
	case "ps":
		return ps(m), nil
	case "ls":
		return ls(m)
	case "cat":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: cat <filename>")
		}
		return cat(m, fields[1])
	case "free":
		return free(m)
	case "reg":
		return reg(m), nil
	default:
		return "", fmt.Errorf("unknown command %q", line)
	}
}

func ps(m *boot.Machine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d task(s), current=%d\n", m.Sched.Count(), m.Sched.Current())
	for i := 0; i < m.Sched.Count(); i++ {
		t, _ := m.Sched.Task(i)
		fmt.Fprintf(&b, "  %d: entry=%#x esp=%#x\n", i, t.EntryPoint, t.ESP)
	}
	return strings.TrimRight(b.String(), "\n")
}

func ls(m *boot.Machine) (string, error) {
	entries, err := m.FS.List()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-12s %d\n", e.Name, e.Size)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// catMax bounds how much of a file cat will pull into memory at once.
const catMax = 64 * 1024

func cat(m *boot.Machine, name string) (string, error) {
	data, err := m.FS.Read(name, catMax)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func free(m *boot.Machine) (string, error) {
	bytes, err := m.FS.FreeSpace()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d bytes free", bytes), nil
}

func reg(m *boot.Machine) string {
	return fmt.Sprintf("esp0=%#x tsc_ticks=%d", m.Tables.KernelStack(), m.PIT.Ticks())
}

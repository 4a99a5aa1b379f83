/*
 * pc32 - Boot configuration file parser.
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

// Package bootconfig is a line-oriented registration parser for the
// boot config file (default pc32.cfg), ported from the registration
// style of config/configparser: each directive registers a handler
// and a type (TypeOption, TypeOptions, TypeSwitch) up front, and the
// file is parsed one directive-per-line against that registry.
//
// Configuration file format:
//
//	'#' starts a comment, rest of line ignored.
//	<line> := <directive> <whitespace> <args>
//	<directive> := DISK | MEMORY | DEBUG
//	DISK takes one bare path.
//	MEMORY takes one decimal KiB count.
//	DEBUG takes a space-separated list of name[=value[,value...]] options.
package bootconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Option is one DEBUG-style argument: a bare name, an optional "=value"
// string, and the comma-split values following the equals sign.
type Option struct {
	Name     string
	EqualOpt string
	Value    []string
}

const (
	TypeOption  = 1 + iota // directive takes exactly one bare value
	TypeOptions            // directive takes a list of Option
	TypeSwitch             // directive takes no arguments
)

type directive struct {
	create func(string, []Option) error
	ty     int
}

var directives = map[string]directive{}

// RegisterOption registers a directive that takes exactly one bare value.
func RegisterOption(name string, fn func(value string, opts []Option) error) {
	directives[strings.ToUpper(name)] = directive{create: fn, ty: TypeOption}
}

// RegisterOptions registers a directive that takes a list of options.
func RegisterOptions(name string, fn func(value string, opts []Option) error) {
	directives[strings.ToUpper(name)] = directive{create: fn, ty: TypeOptions}
}

// RegisterSwitch registers a directive that takes no arguments.
func RegisterSwitch(name string, fn func(value string, opts []Option) error) {
	directives[strings.ToUpper(name)] = directive{create: fn, ty: TypeSwitch}
}

// Config is the parsed result of a boot config file.
type Config struct {
	DiskImage string
	MemoryKiB uint32
	Debug     map[string]bool
}

func init() {
	RegisterOption("DISK", setDisk)
	RegisterOption("MEMORY", setMemory)
	RegisterOptions("DEBUG", setDebug)
}

var current *Config

func setDisk(value string, _ []Option) error {
	if value == "" {
		return errors.New("DISK requires a path")
	}
	current.DiskImage = value
	return nil
}

func setMemory(value string, _ []Option) error {
	kib, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("MEMORY value must be a decimal KiB count: %w", err)
	}
	current.MemoryKiB = uint32(kib)
	return nil
}

func setDebug(_ string, opts []Option) error {
	for _, o := range opts {
		current.Debug[strings.ToUpper(o.Name)] = true
		for _, v := range o.Value {
			current.Debug[strings.ToUpper(v)] = true
		}
	}
	return nil
}

// LoadConfigFile reads and parses name, dispatching each line to its
// registered directive. Unknown directives and malformed arguments
// are reported with the offending line number.
func LoadConfigFile(name string) (*Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	current = &Config{MemoryKiB: 16 * 1024, Debug: map[string]bool{}}

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		line, rerr := reader.ReadString('\n')
		lineNumber++
		if len(line) == 0 && rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, rerr
		}
		if err := parseLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	return current, nil
}

func parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToUpper(fields[0])
	d, ok := directives[name]
	if !ok {
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	args := fields[1:]

	switch d.ty {
	case TypeOption:
		if len(args) != 1 {
			return fmt.Errorf("%s requires exactly one value", name)
		}
		return d.create(args[0], nil)

	case TypeOptions:
		opts := make([]Option, 0, len(args))
		for _, a := range args {
			opts = append(opts, parseOption(a))
		}
		return d.create("", opts)

	case TypeSwitch:
		if len(args) != 0 {
			return fmt.Errorf("%s takes no arguments", name)
		}
		return d.create("", nil)
	}
	return nil
}

// parseOption splits "name=v1,v2" into an Option; a bare "name" yields
// an Option with no EqualOpt or Value.
func parseOption(field string) Option {
	eq := strings.IndexByte(field, '=')
	if eq < 0 {
		return Option{Name: field}
	}
	return Option{
		Name:     field[:eq],
		EqualOpt: field[eq+1:],
		Value:    strings.Split(field[eq+1:], ","),
	}
}

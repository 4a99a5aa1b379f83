/*
 * pc32 - Round-robin task scheduler.
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

// Package sched implements the preemptive round-robin task table,
// matching src/task.c's tasks[MAX_TASKS]/current_task/task_count
// trio, plus the Ring-0->Ring-3 entry src/context_switch_user.c
// performs via inline assembly — represented here as a call into
// internal/cpu's modelled IRET transition.
package sched

import (
	"log/slog"

	"github.com/rcornwell/pc32/internal/cpu"
	"github.com/rcornwell/pc32/internal/kerr"
)

// MaxTasks is the task table capacity (spec.md 3, task.h's MAX_TASKS).
const MaxTasks = 16

// Task is one scheduled task's resident state.
type Task struct {
	EntryPoint uint32
	ESP        uint32
}

// Scheduler is the round-robin task table. The zero value is not
// ready; use New.
type Scheduler struct {
	tasks   [MaxTasks]Task
	current int
	count   int
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// CreateUser appends a new task with the given entry point and
// top-of-stack, matching task_create_user. It returns kerr.Full once
// the table holds MaxTasks entries, standing in for the -1 return.
func (s *Scheduler) CreateUser(entryPoint, userStackTop uint32) (int, error) {
	if s.count >= MaxTasks {
		return -1, kerr.New("sched.CreateUser", kerr.Full)
	}
	s.tasks[s.count] = Task{EntryPoint: entryPoint, ESP: userStackTop}
	tid := s.count
	s.count++
	return tid, nil
}

// Count returns the number of live tasks, matching task_count.
func (s *Scheduler) Count() int { return s.count }

// Current returns the running task's index, matching current_task.
func (s *Scheduler) Current() int { return s.current }

// Task returns a copy of tid's resident state.
func (s *Scheduler) Task(tid int) (Task, error) {
	if tid < 0 || tid >= s.count {
		return Task{}, kerr.New("sched.Task", kerr.NotFound)
	}
	return s.tasks[tid], nil
}

// Schedule saves currentESP into the outgoing task's slot, advances
// current_task to (current+1)%count, and returns the Transition that
// internal/cpu.Enter produced for the incoming task's IRET frame,
// matching schedule()'s save/pick/switch sequence. With zero or one
// task it is a no-op and returns the zero Transition, matching
// "if (task_count <= 1) return".
func (s *Scheduler) Schedule(currentESP uint32) cpu.Transition {
	if s.count <= 1 {
		return cpu.Transition{}
	}
	s.tasks[s.current].ESP = currentESP

	prev := s.current
	next := (s.current + 1) % s.count
	entry := s.tasks[next].EntryPoint
	sp := s.tasks[next].ESP
	s.current = next

	slog.Debug("schedule", "from", prev, "to", next, "entry", entry)
	return cpu.Enter(cpu.NewUserFrame(entry, sp))
}

// Yield is a voluntary reschedule with the caller's own kernel ESP,
// matching task_yield's direct call to schedule().
func (s *Scheduler) Yield(currentESP uint32) cpu.Transition {
	return s.Schedule(currentESP)
}

// Kill removes tid from the table, shifting later entries down,
// matching task_kill. If tid was the running task, it immediately
// reschedules (passing currentESP, the same as the outgoing task's
// saved stack, since the task no longer exists to resume).
func (s *Scheduler) Kill(tid int, currentESP uint32) cpu.Transition {
	if tid < 0 || tid >= s.count {
		return cpu.Transition{}
	}
	needSwitch := tid == s.current

	for i := tid; i < s.count-1; i++ {
		s.tasks[i] = s.tasks[i+1]
	}
	s.count--
	switch {
	case s.count == 0:
		s.current = 0
	case s.current >= s.count:
		s.current = 0
	}

	if needSwitch {
		return s.Schedule(currentESP)
	}
	return cpu.Transition{}
}

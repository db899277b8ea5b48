package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const spinnerFrames = `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`

// spinner shows a progress indicator with a replaceable message on one
// terminal line.
type spinner struct {
	mu       sync.Mutex
	w        io.Writer
	delay    time.Duration
	message  string
	last     string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSpinner(w io.Writer, msg string, delay time.Duration) *spinner {
	return &spinner{w: w, delay: delay, message: msg, stop: make(chan struct{}), done: make(chan struct{})}
}

// SetMessage replaces the text shown next to the spinner.
func (s *spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

func (s *spinner) Start() {
	if runtime.GOOS != "windows" {
		fmt.Fprint(s.w, "\033[?25l")
	}
	go func() {
		defer close(s.done)
		for {
			for _, r := range spinnerFrames {
				select {
				case <-s.stop:
					return
				default:
				}
				s.mu.Lock()
				s.clear()
				s.last = fmt.Sprintf("%s %c", s.message, r)
				fmt.Fprint(s.w, s.last)
				s.mu.Unlock()
				time.Sleep(s.delay)
			}
		}
	}()
}

// Stop clears the line and prints msg when it is not empty.
func (s *spinner) Stop(msg string) {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.mu.Lock()
		defer s.mu.Unlock()
		s.clear()
		if runtime.GOOS != "windows" {
			fmt.Fprint(s.w, "\033[?25h")
		}
		if msg != "" {
			fmt.Fprintln(s.w, msg)
		}
	})
}

// clear erases the last frame. Caller holds mu.
func (s *spinner) clear() {
	if s.last == "" {
		return
	}
	n := utf8.RuneCountInString(s.last)
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", n)+"\r")
	s.last = ""
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/libgen-fetch/internal/events"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressBar renders transfer progress on a terminal. A new bar starts
// whenever the reported total changes, which happens when a download moves
// on to another mirror.
type progressBar struct {
	w    io.Writer
	desc string

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int64
}

// newProgress returns a progress callback drawing on w, or nil when w is not
// a terminal.
func newProgress(w io.Writer, desc string) events.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	p := &progressBar{w: w, desc: desc}
	return p.update
}

func (p *progressBar) update(n, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || total != p.total {
		if p.bar != nil {
			p.bar.Finish()
		}
		p.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(p.desc),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(20),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
		)
		p.total = total
	}
	p.bar.Set64(n)
}

package stats

import (
	"fmt"
	"time"

	"github.com/OPENER-next/OpenStop-stats/log"
)

// Progress reports download progress as [progress] log lines at a
// fixed interval. Counting is funneled through channels so callers
// never block on the reporting itself.
type Progress struct {
	bytes chan int
	total chan int64
	quit  chan struct{}
	done  chan struct{}
}

// StartProgress starts the reporting goroutine. Call Stop to get a
// final summary line and release it.
func StartProgress(interval time.Duration) *Progress {
	p := &Progress{
		bytes: make(chan int, 16),
		total: make(chan int64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.loop(interval)
	return p
}

// AddBytes counts n transferred bytes.
func (p *Progress) AddBytes(n int) {
	select {
	case p.bytes <- n:
	case <-p.done:
	}
}

// SetTotal sets the expected total size. Pass a negative value when
// the length is unknown.
func (p *Progress) SetTotal(n int64) {
	select {
	case p.total <- n:
	case <-p.done:
	}
}

// Stop prints a final summary and stops the reporting goroutine.
func (p *Progress) Stop() {
	close(p.quit)
	<-p.done
}

func (p *Progress) loop(interval time.Duration) {
	defer close(p.done)
	var transferred, total int64
	total = -1
	var lastTransferred int64
	lastReport := time.Now()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case n := <-p.bytes:
			transferred += int64(n)
		case n := <-p.total:
			total = n
		case <-tick.C:
			rate := float64(transferred-lastTransferred) / time.Since(lastReport).Seconds()
			if total >= 0 {
				log.Progressf("downloaded %s of %s (%s/s)",
					fmtBytes(transferred), fmtBytes(total), fmtBytes(int64(rate)))
			} else {
				log.Progressf("downloaded %s (%s/s)",
					fmtBytes(transferred), fmtBytes(int64(rate)))
			}
			lastTransferred = transferred
			lastReport = time.Now()
		case <-p.quit:
			log.Printf("[info] downloaded %s", fmtBytes(transferred))
			return
		}
	}
}

func fmtBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

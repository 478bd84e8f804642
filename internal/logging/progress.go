package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Progress reports the share of sampled seconds already judged. On a
// terminal it redraws one line; elsewhere it logs at most every interval.
type Progress struct {
	w        io.Writer
	log      zerolog.Logger
	tty      bool
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewProgress(w io.Writer, log zerolog.Logger) *Progress {
	return &Progress{
		w:        w,
		log:      log,
		tty:      IsTerminal(w),
		interval: 5 * time.Second,
		now:      time.Now,
	}
}

func (p *Progress) Update(done, total int) {
	if total <= 0 {
		return
	}
	pct := float64(done) / float64(total) * 100
	if p.tty {
		fmt.Fprintf(p.w, "\rAnalysing video: %.2f%%", pct)
		return
	}
	now := p.now()
	if done < total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.log.Info().Str("progress", fmt.Sprintf("%.2f%%", pct)).Int("seconds", done).Int("of", total).Msg("analysing video")
}

// Done finishes the progress line.
func (p *Progress) Done() {
	if p.tty {
		fmt.Fprint(p.w, "\rAnalysing video: 100%   \n")
	}
}

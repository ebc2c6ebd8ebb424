// Package progress renders atlas engine progress.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/internal/logger"
)

const (
	barWidth      = 10
	nameIndent    = "   "
	elapsedIndent = "      "
)

// Bar draws a one-line progress bar per engine phase:
//
//	   ComputeCharts [*****     ] 50%
//
// The line is redrawn in place and closed with the phase's elapsed time.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	now   func() time.Time
	start time.Time

	name  *color.Color
	stars *color.Color
	done  *color.Color
}

// NewBar creates a bar writing to w. Colors are used only when w is a terminal.
func NewBar(w io.Writer) *Bar {
	b := &Bar{
		w:     w,
		now:   time.Now,
		name:  color.New(color.FgCyan),
		stars: color.New(color.FgGreen),
		done:  color.New(color.FgYellow),
	}
	if !logger.IsTerminal(w) {
		b.name.DisableColor()
		b.stars.DisableColor()
		b.done.DisableColor()
	} else {
		b.name.EnableColor()
		b.stars.EnableColor()
		b.done.EnableColor()
	}
	b.start = b.now()
	return b
}

// Report implements atlas.ProgressFunc.
func (b *Bar) Report(category atlas.ProgressCategory, pct int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pct == 0 {
		b.start = b.now()
	}
	pct = min(max(pct, 0), 100)

	var sb strings.Builder
	for i := 0; i < barWidth; i++ {
		if pct/((i+1)*10) > 0 {
			sb.WriteByte('*')
		} else {
			sb.WriteByte(' ')
		}
	}

	fmt.Fprintf(b.w, "\r%s%s [%s] %d%%", nameIndent, b.name.Sprint(category), b.stars.Sprint(sb.String()), pct)
	if pct == 100 {
		elapsed := b.now().Sub(b.start)
		fmt.Fprintf(b.w, "\n%s%s\n", elapsedIndent,
			b.done.Sprintf("%.2f seconds (%g ms) elapsed", elapsed.Seconds(), float64(elapsed.Microseconds())/1000))
	}
}

// Log returns a sink that logs each update at debug level.
func Log(log *zap.Logger) atlas.ProgressFunc {
	log = log.Named("progress")
	return func(category atlas.ProgressCategory, pct int) {
		log.Debug("progress", zap.Stringer("phase", category), zap.Int("percent", pct))
	}
}


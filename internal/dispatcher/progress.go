package dispatcher

import (
	"io"

	"github.com/cheggaaa/pb/v3"

	"go-aggregate-dispatcher/internal/model"
)

// Progress draws a progress bar whose total grows as tasks are submitted,
// since the identifier stream has no known length up front.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a bar writing to w.
func NewProgress(w io.Writer) *Progress {
	bar := pb.Full.New(0)
	bar.SetWriter(w)
	bar.Start()
	return &Progress{bar: bar}
}

func (p *Progress) Skipped(string, string) {}

func (p *Progress) Submitted(model.Task) {
	p.bar.AddTotal(1)
}

func (p *Progress) Finished(model.TaskResult) {
	p.bar.Increment()
}

// Finish stops redrawing the bar.
func (p *Progress) Finish() {
	p.bar.Finish()
}

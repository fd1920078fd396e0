package l5examples

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l3windows"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l4egocentric"
)

// Counter hands out window ids that are unique across a batch run.
type Counter struct {
	next int
}

// NewCounter starts numbering at first.
func NewCounter(first int) *Counter { return &Counter{next: first} }

// Next returns the next id.
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// Total returns the number of ids handed out so far, plus the starting offset.
func (c *Counter) Total() int { return c.next }

// Assembler turns windows into example records.
type Assembler struct {
	Params  l3windows.Params
	Order   egodata.QuaternionOrder
	Actions *FrameActionTable
	IDs     *Counter
}

// Assemble builds one example per span of the valid table. videoID is the
// sub-video id used for action lookup; subDir is its RGB frame directory.
func (a *Assembler) Assemble(videoID, subDir string, valid *egodata.ValidFrameTable, spans []l3windows.Span) ([]egodata.Example, error) {
	past, future := a.Params.PastFrames(), a.Params.FutureFrames()
	layout := Layout{SubDir: subDir}

	examples := make([]egodata.Example, 0, len(spans))
	for _, span := range spans {
		if span.Len != past+future {
			return nil, fmt.Errorf("span at %d has %d frames, want %d", span.Start, span.Len, past+future)
		}
		pastPos, futurePos, err := l4egocentric.Reanchor(l3windows.Rows(valid, span), past, a.Order)
		if err != nil {
			return nil, fmt.Errorf("window at %d: %w", span.Start, err)
		}
		flowU, flowV := layout.FlowPaths(span.Start, past)
		examples = append(examples, egodata.Example{
			WindowID:        a.IDs.Next(),
			VideoID:         videoID,
			StartFrame:      span.Start,
			PastPositions:   points(pastPos),
			FuturePositions: points(futurePos),
			ImagePaths:      layout.ImagePaths(span.Start, past),
			FlowUPaths:      flowU,
			FlowVPaths:      flowV,
			ActionLabels:    a.Actions.Range(videoID, span.Start+past, future),
		})
	}
	return examples, nil
}

func points(vs []r3.Vector) []egodata.Point3 {
	out := make([]egodata.Point3, len(vs))
	for i, v := range vs {
		out[i] = egodata.PointFromVector(v)
	}
	return out
}

package motion

import "math"

// Vector holds absolute source and destination positions in pixel space.
type Vector struct {
	SrcX, SrcY float64
	DstX, DstY float64
}

// FrameVectorBlock is every valid vector the extractor reported for one frame.
// FrameNumber is the decoder frame index, not the block's position in a Collection.
type FrameVectorBlock struct {
	FrameNumber int
	Vectors     []Vector
}

// Collection is the aggregated, read-only view of a video's motion vectors.
type Collection struct {
	blocks []FrameVectorBlock
	byNum  map[int]int
}

func (c *Collection) Len() int {
	return len(c.blocks)
}

// At returns the block at collection index i. The returned Vectors slice is
// shared and must not be modified.
func (c *Collection) At(i int) (FrameVectorBlock, error) {
	if i < 0 || i >= len(c.blocks) {
		return FrameVectorBlock{}, &FrameIndexOutOfRangeError{Index: i, Len: len(c.blocks)}
	}
	return c.blocks[i], nil
}

// Find looks a block up by its frame number.
func (c *Collection) Find(frameNumber int) (FrameVectorBlock, bool) {
	i, ok := c.byNum[frameNumber]
	if !ok {
		return FrameVectorBlock{}, false
	}
	return c.blocks[i], true
}

func (c *Collection) FrameNumbers() []int {
	nums := make([]int, len(c.blocks))
	for i, b := range c.blocks {
		nums[i] = b.FrameNumber
	}
	return nums
}

func (c *Collection) VectorCount() int {
	n := 0
	for _, b := range c.blocks {
		n += len(b.Vectors)
	}
	return n
}

// Aggregate groups valid records by frame number in a single pass. Blocks keep
// the order in which frame numbers first appear, vectors keep stream order.
// Frames without a valid record are left out entirely.
func Aggregate(records []MotionRecord) (*Collection, error) {
	c := &Collection{byNum: make(map[int]int)}

	for _, r := range records {
		if !r.Valid() {
			continue
		}
		if r.SrcY == nil || r.DstX == nil || r.DstY == nil {
			return nil, &MalformedRecordError{FrameNumber: r.FrameNumber, Reason: "source present without complete source/destination coordinates"}
		}
		v := Vector{SrcX: *r.SrcX, SrcY: *r.SrcY, DstX: *r.DstX, DstY: *r.DstY}
		if !finite(v.SrcX, v.SrcY, v.DstX, v.DstY) {
			return nil, &MalformedRecordError{FrameNumber: r.FrameNumber, Reason: "non-finite coordinate"}
		}

		i, ok := c.byNum[r.FrameNumber]
		if !ok {
			i = len(c.blocks)
			c.byNum[r.FrameNumber] = i
			c.blocks = append(c.blocks, FrameVectorBlock{FrameNumber: r.FrameNumber})
		}
		c.blocks[i].Vectors = append(c.blocks[i].Vectors, v)
	}

	if len(c.blocks) == 0 {
		return nil, ErrEmptyStream
	}
	return c, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

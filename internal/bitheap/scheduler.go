package bitheap

import (
	"log/slog"

	"github.com/roach88/bitheap/internal/compressor"
)

// scheduler reduces a column store to a plan. It never touches the
// operator; emission walks the finished plan.
type scheduler struct {
	cs      *columnStore
	catalog *compressor.Catalog
	budget  *StepBudget
	logger  *slog.Logger

	compressorDelay float64
	adderDelay      func(width int) float64

	plan     *Plan
	cmpIndex int
	chunks   int
}

func (s *scheduler) run() (*Plan, error) {
	maxWeight := s.cs.maxWeight()
	s.plan = &Plan{MaxWeight: maxWeight}

	minWeight := s.passThrough()
	s.plan.MinWeight = minWeight

	for w := minWeight; w < maxWeight; w++ {
		if err := s.reduceColumn(w); err != nil {
			return nil, err
		}
	}

	if minWeight < maxWeight {
		s.addRows(minWeight)
	}

	s.plan.ArenaSize = len(s.cs.arena)
	return s.plan, nil
}

// passThrough moves the low columns of height at most one into chunk 0 and
// returns the first column taller than one.
func (s *scheduler) passThrough() int {
	maxWeight := s.cs.maxWeight()
	var chunk []BitID
	stage := 0
	offset := 0.0

	w := 0
	for ; w < maxWeight && s.cs.height(w) <= 1; w++ {
		rest := s.cs.remaining(w)
		if len(rest) == 0 {
			chunk = append(chunk, NoBit)
			continue
		}
		id := rest[0]
		s.cs.bit(id).Consumed = true
		chunk = append(chunk, id)
		stage, offset = later(stage, offset, s.cs.bit(id))
	}

	if w > 0 {
		s.plan.Steps = append(s.plan.Steps, Step{
			Kind:         StepPassThrough,
			Weight:       0,
			Bits:         chunk,
			Width:        w,
			Chunk:        s.chunks,
			Stage:        stage,
			TimingOffset: offset,
		})
		s.chunks++
	}

	s.logger.Debug("prefix columns passed through", "min_weight", w, "max_weight", maxWeight)
	return w
}

// reduceColumn applies compressors to column w until it holds at most two
// bits.
func (s *scheduler) reduceColumn(w int) error {
	for {
		h := s.cs.height(w)
		if h <= 2 {
			return nil
		}

		c, ok := s.pick(w, h)
		if !ok {
			return newNoProgressError(w, h, s.cs.maxWeight())
		}
		if err := s.budget.Check(w, s.cs.maxWeight()); err != nil {
			return err
		}

		s.logger.Debug("applying compressor",
			"weight", w,
			"height", h,
			"compressor", c.String(),
		)
		s.apply(w, c)
	}
}

// pick chooses the compressor for a column of height h: the widest while the
// column is taller than its primary input count, otherwise the first catalog
// entry whose primary input count equals h.
func (s *scheduler) pick(w, h int) (compressor.Compressor, bool) {
	widest := s.catalog.Widest()
	if h > widest.Inputs0 {
		return widest, s.fitsNext(w, widest)
	}

	for i := 0; i < s.catalog.Len(); i++ {
		c := s.catalog.At(i)
		if c.Inputs0 == h && s.fitsNext(w, c) {
			return c, true
		}
	}
	return compressor.Compressor{}, false
}

// fitsNext reports whether column w+1 exists and holds the inputs1 bits c needs.
func (s *scheduler) fitsNext(w int, c compressor.Compressor) bool {
	if c.Inputs1 == 0 {
		return true
	}
	return s.cs.inRange(w+1) && s.cs.height(w+1) >= c.Inputs1
}

func (s *scheduler) apply(w int, c compressor.Compressor) {
	step := Step{
		Kind:       StepCompress,
		Index:      s.cmpIndex,
		Weight:     w,
		Compressor: c,
		Inputs0:    s.cs.take(w, c.Inputs0),
	}
	if c.Inputs1 > 0 {
		step.Inputs1 = s.cs.take(w+1, c.Inputs1)
	}
	s.cmpIndex++

	stage := 0
	for _, id := range step.Inputs0 {
		stage = max(stage, s.cs.bit(id).Stage)
	}
	for _, id := range step.Inputs1 {
		stage = max(stage, s.cs.bit(id).Stage)
	}
	stage++

	step.Stage = stage
	step.TimingOffset = s.compressorDelay
	step.Outputs = make([]BitID, c.Outputs())
	for i := range step.Outputs {
		ow := w + i
		if !s.cs.inRange(ow) {
			step.Outputs[i] = NoBit
			s.plan.Dropped++
			s.logger.Warn("compressor output above heap dropped", "weight", ow, "max_weight", s.cs.maxWeight())
			continue
		}
		step.Outputs[i] = s.cs.insert(WeightedBit{
			Weight:       ow,
			Stage:        stage,
			TimingOffset: s.compressorDelay,
			Origin:       OriginCompressor,
		})
	}

	s.plan.Steps = append(s.plan.Steps, step)
}

// addRows builds the final adder over [minWeight, maxWeight). Each column
// holds at most two bits; missing bits are zero.
func (s *scheduler) addRows(minWeight int) {
	maxWeight := s.cs.maxWeight()
	width := maxWeight - minWeight
	row0 := make([]BitID, width)
	row1 := make([]BitID, width)

	stage := 0
	for w := minWeight; w < maxWeight; w++ {
		rest := s.cs.remaining(w)
		row0[w-minWeight], row1[w-minWeight] = NoBit, NoBit
		if len(rest) > 0 {
			row0[w-minWeight] = rest[0]
		}
		if len(rest) > 1 {
			row1[w-minWeight] = rest[1]
		}
		for _, id := range rest {
			s.cs.bit(id).Consumed = true
			stage = max(stage, s.cs.bit(id).Stage)
		}
	}

	s.plan.Steps = append(s.plan.Steps, Step{
		Kind:         StepAdd,
		Weight:       minWeight,
		Inputs0:      row0,
		Inputs1:      row1,
		Width:        width,
		Chunk:        s.chunks,
		Stage:        stage + 1,
		TimingOffset: s.adderDelay(width),
	})
	s.chunks++
}

// later returns the later of (stage, offset) and b's arrival time.
func later(stage int, offset float64, b *WeightedBit) (int, float64) {
	if b.Stage > stage || (b.Stage == stage && b.TimingOffset > offset) {
		return b.Stage, b.TimingOffset
	}
	return stage, offset
}

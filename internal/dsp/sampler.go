package dsp

// Resampler upsamples the magnitude stream from the input rate to the
// output rate using two-tap linear interpolation with per-phase
// coefficients precomputed at construction. One block consumes ratioIn
// input samples and produces ratioOut output samples; the caller keeps one
// extra input sample of overlap so the last phase can interpolate across
// the block boundary.
type Resampler struct {
	ratioIn  int
	ratioOut int

	first  []float32
	second []float32
	offset []int

	passthrough bool
}

// NewResampler builds a resampler for the given rate pair. The rates are
// reduced by their greatest common divisor to the smallest block shape.
func NewResampler(input, output Rate) *Resampler {
	g := int(gcd(uint64(input), uint64(output)))
	r := &Resampler{
		ratioIn:     int(input) / g,
		ratioOut:    int(output) / g,
		passthrough: input == output,
	}
	if r.passthrough {
		return r
	}

	r.first = make([]float32, r.ratioOut)
	r.second = make([]float32, r.ratioOut)
	r.offset = make([]int, r.ratioOut)
	for j := 0; j < r.ratioOut; j++ {
		off := r.ratioIn * j
		r.first[j] = float32(r.ratioOut - off%r.ratioOut)
		r.second[j] = float32(off % r.ratioOut)
		r.offset[j] = off / r.ratioOut
	}
	return r
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// RatioIn returns the input samples consumed per block.
func (r *Resampler) RatioIn() int { return r.ratioIn }

// RatioOut returns the output samples produced per block.
func (r *Resampler) RatioOut() int { return r.ratioOut }

// Resample processes numBlocks blocks from in to out. in must hold
// numBlocks*RatioIn()+1 samples, out numBlocks*RatioOut().
func (r *Resampler) Resample(in, out []float32, numBlocks int) {
	if r.passthrough {
		copy(out[:numBlocks*r.ratioOut], in)
		return
	}

	scale := 1.0 / float32(r.ratioOut)
	for b := 0; b < numBlocks; b++ {
		for j := 0; j < r.ratioOut; j++ {
			k := r.offset[j]
			out[j] = (r.first[j]*in[k] + r.second[j]*in[k+1]) * scale
		}
		in = in[r.ratioIn:]
		out = out[r.ratioOut:]
	}
}

package audio

import "fmt"

// Resample converts samples between rates using linear interpolation. Good
// enough for speech playback; replies are short synthesized clips.
func Resample(in []float32, fromRate int, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d to=%d", fromRate, toRate)
	}
	if len(in) == 0 {
		return []float32{}, nil
	}
	if fromRate == toRate {
		out := make([]float32, len(in))
		copy(out, in)
		return out, nil
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(in)) / ratio)
	if outLen <= 0 {
		return []float32{}, nil
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = in[idx] + frac*(in[idx+1]-in[idx])
	}

	return out, nil
}

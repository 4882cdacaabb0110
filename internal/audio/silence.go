package audio

import "math"

// SilenceMetrics summarizes the loudness of a clip in dBFS.
type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// Measure computes RMS and peak levels of the clip.
func Measure(clip Clip) SilenceMetrics {
	if len(clip.Samples) == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}
	}
	var peak, sumSquares float64
	for _, s := range clip.Samples {
		v := float64(s) / 32768.0
		if a := math.Abs(v); a > peak {
			peak = a
		}
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(clip.Samples)))
	return SilenceMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  int64(len(clip.Samples)),
	}
}

// IsSilent reports whether the clip stays below thresholdDBFS. Short peaks up
// to 6 dB above the threshold are tolerated.
func IsSilent(clip Clip, thresholdDBFS float64) (bool, SilenceMetrics) {
	m := Measure(clip)
	if m.Samples == 0 {
		return true, m
	}
	if math.IsInf(m.RMSdBFS, -1) && math.IsInf(m.PeakdBFS, -1) {
		return true, m
	}
	peakGate := thresholdDBFS + 6
	return m.RMSdBFS <= thresholdDBFS && m.PeakdBFS <= peakGate, m
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}

package voice

import "math"

// EstimateSNR estimates the signal-to-noise ratio of a mono signal in dB.
// The noise floor is taken from the leading 10% of the signal on the
// assumption that callers start with a quiet period. Purely telemetry; the
// verdict never depends on it.
func EstimateSNR(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	noiseLength := len(samples) / 10
	if noiseLength < 512 {
		noiseLength = 512
	}
	if noiseLength > len(samples) {
		noiseLength = len(samples)
	}

	noiseRMS := rms(samples[:noiseLength])
	noisePower := noiseRMS * noiseRMS

	var signalPower float64
	for _, s := range samples {
		signalPower += s * s
	}
	signalPower /= float64(len(samples))

	if noisePower == 0 {
		return 100.0
	}

	snr := signalPower / noisePower
	if snr <= 0 {
		return -100.0
	}
	return 10.0 * math.Log10(snr)
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

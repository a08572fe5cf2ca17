package voice

// Radix-2 Cooley-Tukey FFT. Converts a time-domain frame into its frequency
// spectrum; input length must be a power of two (the extractor guarantees
// this via its frame size).

import (
	"math"
)

// FFT computes the discrete Fourier transform of a real-valued input.
func FFT(input []float64) []complex128 {
	complexArray := make([]complex128, len(input))
	for i, v := range input {
		complexArray[i] = complex(v, 0)
	}
	return recursiveFFT(complexArray)
}

func recursiveFFT(complexArray []complex128) []complex128 {
	N := len(complexArray)
	if N <= 1 {
		return complexArray
	}

	even := make([]complex128, N/2)
	odd := make([]complex128, N/2)
	for i := 0; i < N/2; i++ {
		even[i] = complexArray[2*i]
		odd[i] = complexArray[2*i+1]
	}

	even = recursiveFFT(even)
	odd = recursiveFFT(odd)

	fftResult := make([]complex128, N)
	for k := 0; k < N/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(N)
		t := complex(math.Cos(angle), math.Sin(angle))
		fftResult[k] = even[k] + t*odd[k]
		fftResult[k+N/2] = even[k] - t*odd[k]
	}

	return fftResult
}

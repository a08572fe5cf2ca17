package voice

// Fraud risk explanations are static templates keyed by label and confidence
// band. Deliberately not generated: the same verdict must always produce the
// same text, and the text must never leak anything about the caller's audio.

const (
	highConfidence     = 0.85
	moderateConfidence = 0.65
)

// Explanation returns the fraud risk text for a verdict. dominantGroup names
// the feature group carrying the most ensemble importance and may be empty.
func Explanation(label string, confidence float64, dominantGroup string) string {
	text := explanationTemplate(label, confidence)
	if suffix := groupSuffix(dominantGroup); suffix != "" {
		text += " " + suffix
	}
	return text
}

func explanationTemplate(label string, confidence float64) string {
	if label == LabelAIGenerated {
		switch {
		case confidence > highConfidence:
			return "High confidence AI-generated voice detected. " +
				"Spectral patterns show synthetic characteristics. " +
				"Recommend additional verification for fraud prevention."
		case confidence > moderateConfidence:
			return "Likely AI-generated voice with moderate confidence. " +
				"Some synthetic markers detected. " +
				"Proceed with caution in sensitive contexts."
		default:
			return "Possible AI-generated voice with low confidence. " +
				"Mixed signals detected. " +
				"Consider secondary verification methods."
		}
	}

	switch {
	case confidence > highConfidence:
		return "High confidence human voice detected. " +
			"Natural acoustic patterns consistent with human speech. " +
			"Low fraud risk based on audio analysis."
	case confidence > moderateConfidence:
		return "Likely human voice with moderate confidence. " +
			"Predominantly natural speech characteristics. " +
			"Standard verification recommended."
	default:
		return "Possible human voice with low confidence. " +
			"Ambiguous acoustic features. " +
			"Additional verification recommended for high-stakes decisions."
	}
}

func groupSuffix(group string) string {
	switch group {
	case GroupCepstral:
		return "Assessment driven primarily by cepstral (timbre) features."
	case GroupSpectral:
		return "Assessment driven primarily by spectral shape features."
	case GroupPitchClass:
		return "Assessment driven primarily by pitch-class distribution features."
	default:
		return ""
	}
}

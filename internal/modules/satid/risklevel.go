package satid

// RiskLevel is the categorical risk band of a SATID score
type RiskLevel string

// Risk bands from highest to lowest score. A high score means the price sits
// close to (or below) FBIS, which is the high-risk condition.
const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
	RiskMinimal  RiskLevel = "MINIMAL"
)

// ClassifyRisk maps a SATID score in [0,100] to its risk band, lower bounds
// inclusive:
//
//	[90,100] CRITICAL
//	[75,90)  HIGH
//	[50,75)  MODERATE
//	[25,50)  LOW
//	[0,25)   MINIMAL
//
// Scores outside [0,100] cannot occur: the scorer clamps before classifying.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score >= 90:
		return RiskCritical
	case score >= 75:
		return RiskHigh
	case score >= 50:
		return RiskModerate
	case score >= 25:
		return RiskLow
	default:
		return RiskMinimal
	}
}

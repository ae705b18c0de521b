package forecast

import "testing"

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		n    int
		r2   float64
		want Confidence
	}{
		{12, 0.71, ConfidenceHigh},
		{36, 0.99, ConfidenceHigh},
		{12, 0.7, ConfidenceMedium},
		{11, 0.9, ConfidenceMedium},
		{6, 0.41, ConfidenceMedium},
		{6, 0.4, ConfidenceLow},
		{5, 0.99, ConfidenceLow},
		{24, 0.1, ConfidenceLow},
		{0, 0, ConfidenceLow},
	}

	for _, tt := range tests {
		if got := ClassifyConfidence(tt.n, tt.r2); got != tt.want {
			t.Errorf("ClassifyConfidence(%d, %v) = %s, want %s", tt.n, tt.r2, got, tt.want)
		}
	}
}

func TestConfidenceDegrade(t *testing.T) {
	if ConfidenceHigh.Degrade() != ConfidenceMedium {
		t.Error("high should degrade to medium")
	}
	if ConfidenceMedium.Degrade() != ConfidenceLow {
		t.Error("medium should degrade to low")
	}
	if ConfidenceLow.Degrade() != ConfidenceLow {
		t.Error("low should stay low")
	}
}

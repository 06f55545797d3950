package pipeline

import "testing"

func TestDiagnoseTruthTable(t *testing.T) {
	cases := []struct {
		voice   int
		symptom int
		want    string
	}{
		{0, 0, "No, you do not have Parkinsons Disease."},
		{0, 1, "You may have stage 1 Parkinson's disease (tremor) !.\n Consider consulting a doctor for further evaluation and monitoring."},
		{1, 0, "You may be experiencing early voice symptoms(voice changes) associated with Parkinson's disease.\nIt's advisable to seek medical advice for assessment."},
		{1, 1, "Yes, you have Parkinsons Disease.\nIt's important to consult a doctor for further diagnosis and treatment."},
	}
	for _, tc := range cases {
		if got := Diagnose(tc.voice, tc.symptom); string(got) != tc.want {
			t.Fatalf("Diagnose(%d, %d) = %q, want %q", tc.voice, tc.symptom, got, tc.want)
		}
	}
}

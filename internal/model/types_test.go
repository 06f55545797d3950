package model

import (
	"reflect"
	"testing"
)

func distinctFeatures() VoiceFeatures {
	return VoiceFeatures{
		Fo:            1,
		Fhi:           2,
		Flo:           3,
		JitterPercent: 4,
		JitterAbs:     5,
		RAP:           6,
		PPQ:           7,
		DDP:           8,
		Shimmer:       9,
		ShimmerDB:     10,
		APQ3:          11,
		APQ5:          12,
		APQ:           13,
		DDA:           14,
		HNR:           15,
		NHR:           16,
		DFA:           17,
		Spread1:       18,
		Spread2:       19,
		PPE:           20,
	}
}

func TestVectorFollowsVoiceColumns(t *testing.T) {
	f := distinctFeatures()
	want := map[string]float64{
		"MDVP:Fo (Hz)":      f.Fo,
		"MDVP:Fhi (Hz)":     f.Fhi,
		"MDVP:Flo (Hz)":     f.Flo,
		"MDVP:Jitter (%)":   f.JitterPercent,
		"MDVP:Jitter (Abs)": f.JitterAbs,
		"MDVP:RAP":          f.RAP,
		"MDVP:PPQ":          f.PPQ,
		"Jitter:DDP":        f.DDP,
		"MDVP:Shimmer":      f.Shimmer,
		"MDVP:Shimmer (dB)": f.ShimmerDB,
		"Shimmer:APQ3":      f.APQ3,
		"Shimmer:APQ5":      f.APQ5,
		"MDVP:APQ":          f.APQ,
		"Shimmer:DDA":       f.DDA,
		"HNR":               f.HNR,
		"NHR":               f.NHR,
		"DFA":               f.DFA,
		"Spread1":           f.Spread1,
		"Spread2":           f.Spread2,
		"PPE":               f.PPE,
	}
	vec := f.Vector()
	if len(vec) != len(VoiceColumns) || len(want) != len(VoiceColumns) {
		t.Fatalf("expected %d values, got %d", len(VoiceColumns), len(vec))
	}
	// Every field must be read exactly once.
	if got := reflect.TypeOf(f).NumField(); got != len(vec) {
		t.Fatalf("struct has %d fields, vector has %d", got, len(vec))
	}
	for i, name := range VoiceColumns {
		if vec[i] != want[name] {
			t.Fatalf("slot %d (%s): expected %v, got %v", i, name, want[name], vec[i])
		}
	}
}

func TestNamedPairsColumnsWithValues(t *testing.T) {
	f := distinctFeatures()
	named := f.Named()
	vec := f.Vector()
	if len(named) != len(VoiceColumns) {
		t.Fatalf("expected %d named values, got %d", len(VoiceColumns), len(named))
	}
	for i, nv := range named {
		if nv.Name != VoiceColumns[i] || nv.Value != vec[i] {
			t.Fatalf("slot %d: expected %s=%v, got %s=%v", i, VoiceColumns[i], vec[i], nv.Name, nv.Value)
		}
	}
	if named[0].Value != 1 || named[19].Value != 20 {
		t.Fatalf("unexpected ends %+v %+v", named[0], named[19])
	}
}

func TestSymptomScoresValidate(t *testing.T) {
	if err := (SymptomScores{Tremor: 0, Bradykinesia: 9, Rigidity: 4}).Validate(); err != nil {
		t.Fatalf("expected valid scores, got %v", err)
	}
	if err := (SymptomScores{Rigidity: 10}).Validate(); err == nil {
		t.Fatalf("expected error for rigidity 10")
	}
	if got := (SymptomScores{Tremor: 1, Bradykinesia: 2, Rigidity: 3}).Vector(); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("unexpected symptom vector %v", got)
	}
}

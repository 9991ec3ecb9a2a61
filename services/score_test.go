package services

import "testing"

func TestScoreCounters(t *testing.T) {
	tests := []struct {
		name          string
		tracks        int64
		artists       int64
		listeningMs   int64
		wantVolume    int64
		wantDiversity int64
		wantHistory   int64
		wantTotal     int64
	}{
		{
			name: "zero counters",
		},
		{
			name:          "ten tracks three artists three minutes",
			tracks:        10,
			artists:       3,
			listeningMs:   180000,
			wantVolume:    10,
			wantDiversity: 30,
			wantHistory:   3,
			wantTotal:     43,
		},
		{
			name:        "partial minute does not count",
			listeningMs: 59999,
		},
		{
			name:        "full minute counts once",
			listeningMs: 60000,
			wantHistory: 1,
			wantTotal:   1,
		},
		{
			name:       "single track",
			tracks:     1,
			wantVolume: 1,
			wantTotal:  1,
		},
		{
			name:          "defensive clamp on negative input",
			tracks:        -5,
			artists:       -1,
			listeningMs:   -60000,
			wantVolume:    0,
			wantDiversity: 0,
			wantHistory:   0,
			wantTotal:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreCounters(tt.tracks, tt.artists, tt.listeningMs)
			if got.Volume != tt.wantVolume {
				t.Errorf("Volume = %d, want %d", got.Volume, tt.wantVolume)
			}
			if got.Diversity != tt.wantDiversity {
				t.Errorf("Diversity = %d, want %d", got.Diversity, tt.wantDiversity)
			}
			if got.History != tt.wantHistory {
				t.Errorf("History = %d, want %d", got.History, tt.wantHistory)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
		})
	}
}

// Same counters must always yield the same scores, independent of call order.
func TestScoreCountersPure(t *testing.T) {
	first := ScoreCounters(42, 7, 600000)
	ScoreCounters(1, 1, 1)
	second := ScoreCounters(42, 7, 600000)
	if first != second {
		t.Errorf("ScoreCounters is not referentially transparent: %+v vs %+v", first, second)
	}
}

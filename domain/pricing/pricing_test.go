package pricing

import "testing"

func TestTable_Cost(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name     string
		provider string
		units    float64
		want     float64
	}{
		{"half a thousand tokens", ProviderOpenRouter, 0.5, 0.0005},
		{"exact thousand", ProviderOpenRouter, 1, 0.001},
		{"zero units", ProviderOpenRouter, 0, 0},
		{"negative units", ProviderOpenRouter, -5, 0},
		{"unknown provider is free", "whisper", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Cost(tt.provider, tt.units); got != tt.want {
				t.Errorf("Cost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTable_Merge(t *testing.T) {
	base := DefaultTable()
	merged := base.Merge(map[string]float64{
		ProviderOpenRouter: 0.002,
		"whisper":          0.005,
	})

	if merged[ProviderOpenRouter] != 0.002 {
		t.Errorf("override not applied: %v", merged[ProviderOpenRouter])
	}
	if merged["whisper"] != 0.005 {
		t.Errorf("new provider not added: %v", merged["whisper"])
	}
	if base[ProviderOpenRouter] != 0.001 {
		t.Errorf("merge must not mutate receiver: %v", base[ProviderOpenRouter])
	}
}

func TestStore_ReplaceSwapsRates(t *testing.T) {
	s := NewStore(DefaultTable())
	if got := s.Cost(ProviderOpenRouter, 2); got != 0.002 {
		t.Fatalf("initial Cost = %v, want 0.002", got)
	}

	s.Replace(DefaultTable().Merge(map[string]float64{ProviderOpenRouter: 0.005}))
	if got := s.Cost(ProviderOpenRouter, 2); got != 0.01 {
		t.Errorf("Cost after Replace = %v, want 0.01", got)
	}

	s.Replace(nil)
	if got := s.Cost(ProviderOpenRouter, 2); got != 0.01 {
		t.Errorf("Replace(nil) must keep the current table, Cost = %v", got)
	}
}

func TestStore_NilTableDefaults(t *testing.T) {
	s := NewStore(nil)
	if got := s.Cost(ProviderOpenRouter, 1); got != 0.001 {
		t.Errorf("Cost = %v, want default 0.001", got)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore(DefaultTable())
	snap := s.Snapshot()
	snap[ProviderOpenRouter] = 99

	if got := s.Cost(ProviderOpenRouter, 1); got != 0.001 {
		t.Errorf("mutating a snapshot leaked into the store: Cost = %v", got)
	}
}

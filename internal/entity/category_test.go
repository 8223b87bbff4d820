package entity

import "testing"

func TestNewsCategory_String(t *testing.T) {
	tests := []struct {
		name string
		cat  NewsCategory
		want string
	}{
		{"politics", Politics, "politics"},
		{"economy", Economy, "economy"},
		{"society", Society, "society"},
		{"culture", Culture, "culture"},
		{"world", World, "world"},
		{"it", IT, "it"},
		{"unknown", NewsCategory(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cat.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewsCategory_IsValid(t *testing.T) {
	tests := []struct {
		name string
		cat  NewsCategory
		want bool
	}{
		{"politics is valid", Politics, true},
		{"it is valid", IT, true},
		{"zero is invalid", NewsCategory(0), false},
		{"negative is invalid", NewsCategory(-1), false},
		{"out of range is invalid", NewsCategory(106), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cat.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    NewsCategory
		wantErr bool
	}{
		{"economy", "economy", Economy, false},
		{"it lowercase", "it", IT, false},
		{"unknown name", "sports", 0, true},
		{"uppercase rejected", "ECONOMY", 0, true},
		{"empty rejected", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewsCategory_PriorityWeight(t *testing.T) {
	tests := []struct {
		name string
		cat  NewsCategory
		want int
	}{
		{"politics is top weight", Politics, 3},
		{"economy is top weight", Economy, 3},
		{"society is mid weight", Society, 2},
		{"world is mid weight", World, 2},
		{"it is mid weight", IT, 2},
		{"culture is low weight", Culture, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cat.PriorityWeight(); got != tt.want {
				t.Errorf("PriorityWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllCategories_AllValid(t *testing.T) {
	if len(AllCategories) != 6 {
		t.Fatalf("len(AllCategories) = %d, want 6", len(AllCategories))
	}
	for _, c := range AllCategories {
		if !c.IsValid() {
			t.Errorf("category %v in AllCategories is not valid", c)
		}
	}
}

package application

import (
	"reflect"
	"testing"

	"flowerchat/backend/internal/features/assistant/domain"
)

func TestChecklist(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.SessionSettings
		missing  []string
	}{
		{"nil settings", nil, []string{ItemRecipient, ItemOccasion, ItemCity}},
		{"blank strings", &domain.SessionSettings{Recipient: "  "}, []string{ItemRecipient, ItemOccasion, ItemCity}},
		{"recipient only", &domain.SessionSettings{Recipient: "mom"}, []string{ItemOccasion, ItemCity}},
		{"city name without id", &domain.SessionSettings{Recipient: "mom", Occasion: "birthday", CityName: "Москва"}, []string{ItemCity}},
		{"complete", &domain.SessionSettings{Recipient: "mom", Occasion: "birthday", CityID: 1}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecklist(tt.settings)
			if got := c.Missing(); !reflect.DeepEqual(got, tt.missing) {
				t.Errorf("Missing() = %v, want %v", got, tt.missing)
			}
			if c.Complete() != (len(tt.missing) == 0) {
				t.Errorf("Complete() = %v with missing %v", c.Complete(), tt.missing)
			}
		})
	}
}

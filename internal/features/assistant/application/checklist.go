package application

import (
	"strings"

	"flowerchat/backend/internal/features/assistant/domain"
)

// Checklist items, in the order the assistant asks for them.
const (
	ItemRecipient = "recipient"
	ItemOccasion  = "occasion"
	ItemCity      = "city"
)

var checklistOrder = []string{ItemRecipient, ItemOccasion, ItemCity}

// Checklist tracks which of recipient, occasion and city are still unknown.
type Checklist struct {
	recipient bool
	occasion  bool
	city      bool
}

// NewChecklist derives the checklist state from session settings.
func NewChecklist(s *domain.SessionSettings) Checklist {
	if s == nil {
		return Checklist{}
	}
	return Checklist{
		recipient: strings.TrimSpace(s.Recipient) != "",
		occasion:  strings.TrimSpace(s.Occasion) != "",
		city:      s.CityID > 0,
	}
}

// Missing lists the open items in asking order. Never nil.
func (c Checklist) Missing() []string {
	missing := make([]string, 0, len(checklistOrder))
	for _, item := range checklistOrder {
		if !c.has(item) {
			missing = append(missing, item)
		}
	}
	return missing
}

// Complete reports whether every item is known.
func (c Checklist) Complete() bool {
	return c.recipient && c.occasion && c.city
}

func (c Checklist) has(item string) bool {
	switch item {
	case ItemRecipient:
		return c.recipient
	case ItemOccasion:
		return c.occasion
	case ItemCity:
		return c.city
	}
	return false
}

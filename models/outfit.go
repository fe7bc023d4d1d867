package models

// OutfitSuggestion is the stylist's answer. Items are identifiers and may
// contain ids that are not in the inventory.
type OutfitSuggestion struct {
	OutfitName string   `json:"outfitName"`
	Items      []string `json:"items"`
	Reasoning  string   `json:"reasoning"`
}

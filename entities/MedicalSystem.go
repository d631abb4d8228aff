package entities

// MedicalSystem is a clinical category grouping drugs (Cardiovascular, Neurology...).
type MedicalSystem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
}

package entities

// Drug is a named medication with its descriptive clinical metadata.
type Drug struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	GenericName       string `json:"genericName,omitempty"`
	BrandName         string `json:"brandName,omitempty"`
	Description       string `json:"description,omitempty"`
	Indications       string `json:"indications,omitempty"`
	Contraindications string `json:"contraindications,omitempty"`
	SideEffects       string `json:"sideEffects,omitempty"`
	Monitoring        string `json:"monitoring,omitempty"`
	MedicalSystemID   string `json:"medicalSystemId"`
}

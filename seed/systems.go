package seed

import "github.com/giygas/pediatric-drug-calculator/entities"

// MedicalSystems is the fixed list of 18 clinical categories
var MedicalSystems = []entities.MedicalSystem{
	{ID: "1", Name: "Neurology", Description: "Seizures, epilepsy, neuromuscular diseases", Icon: "🧠", Category: "Neurology"},
	{ID: "2", Name: "Respiratory System", Description: "Asthma, pneumonia, bronchiolitis", Icon: "🫁", Category: "Respiratory"},
	{ID: "3", Name: "Cardiovascular System", Description: "Heart defects, arrhythmias, heart failure", Icon: "❤️", Category: "Cardiovascular"},
	{ID: "4", Name: "Genetics & Metabolic Disorders", Description: "Inborn errors, lysosomal storage diseases", Icon: "🧬", Category: "Genetics"},
	{ID: "5", Name: "Fluid, Electrolyte & Acid-Base", Description: "Dehydration, electrolyte imbalances", Icon: "💧", Category: "Fluids"},
	{ID: "6", Name: "Musculoskeletal System", Description: "Orthopedic problems, arthritis", Icon: "🦴", Category: "Musculoskeletal"},
	{ID: "7", Name: "Immunology", Description: "Immunodeficiencies, hypersensitivities", Icon: "🔬", Category: "Immunology"},
	{ID: "8", Name: "Hematology & Oncology", Description: "Anemias, leukemias, bleeding disorders", Icon: "💉", Category: "Hematology"},
	{ID: "9", Name: "Rheumatology", Description: "Lupus, arthritis, vasculitis", Icon: "🔥", Category: "Rheumatology"},
	{ID: "10", Name: "Infectious Diseases", Description: "Bacterial, viral, fungal infections", Icon: "🧪", Category: "Infectious"},
	{ID: "11", Name: "Gastrointestinal System", Description: "GERD, IBD, liver diseases", Icon: "🧫", Category: "GI"},
	{ID: "12", Name: "Endocrinology", Description: "Diabetes, thyroid, growth disorders", Icon: "🧠", Category: "Endocrinology"},
	{ID: "13", Name: "Nephrology & Urology", Description: "Kidney disease, UTI, congenital anomalies", Icon: "⚕️", Category: "Nephrology"},
	{ID: "14", Name: "Ophthalmology", Description: "Eye disorders and infections", Icon: "👁️", Category: "Ophthalmology"},
	{ID: "15", Name: "Otolaryngology (ENT)", Description: "Ear, nose, and throat disorders", Icon: "👂", Category: "ENT"},
	{ID: "16", Name: "Dermatology", Description: "Skin disorders and infections", Icon: "🧴", Category: "Dermatology"},
	{ID: "17", Name: "Neonatology", Description: "Neonatal care and complications", Icon: "👶", Category: "Neonatology"},
	{ID: "18", Name: "Adolescent Medicine", Description: "Puberty, mental health, risk behaviors", Icon: "🧑‍⚕️", Category: "Adolescent"},
}

// BodySystem names one literal drug data set that can be seeded
type BodySystem struct {
	Name    string // path segment, e.g. "cardiovascular"
	Label   string // used in log and error text
	File    string
	Message string
}

// BodySystems lists the seedable data sets in the order SeedAll loads them
var BodySystems = []BodySystem{
	{Name: "cardiovascular", Label: "cardiovascular", File: "data/cardiovascular.json", Message: "Cardiovascular system drugs seeded successfully"},
	{Name: "fluids", Label: "fluid and electrolyte", File: "data/fluids.json", Message: "Fluid, Electrolyte & Acid-Base Disorders drugs seeded successfully"},
	{Name: "genetics", Label: "genetics", File: "data/genetics.json", Message: "Genetics & Metabolic Disorders drugs seeded successfully"},
	{Name: "neurology", Label: "neurology", File: "data/neurology.json", Message: "Neurology drugs seeded successfully"},
	{Name: "respiratory", Label: "respiratory", File: "data/respiratory.json", Message: "Respiratory system drugs seeded successfully"},
}

// LookupBodySystem finds a seedable data set by path name
func LookupBodySystem(name string) (BodySystem, bool) {
	for _, bs := range BodySystems {
		if bs.Name == name {
			return bs, true
		}
	}
	return BodySystem{}, false
}

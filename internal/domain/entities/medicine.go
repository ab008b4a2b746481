package entities

import "time"

// Medicine categories used by the synthetic catalog and the prescription policy
const (
	CategoryPainRelief    = "Pain Relief"
	CategoryAntibiotics   = "Antibiotics"
	CategoryBloodPressure = "Blood Pressure"
	CategoryDiabetes      = "Diabetes"
	CategorySurgicals     = "Surgicals"
	CategoryEquipment     = "Equipment"
	CategorySupplies      = "Supplies"
	CategoryAllergy       = "Allergy"
	CategoryFirstAid      = "First Aid"
	CategoryGeneral       = "General"
)

var regulatedCategories = map[string]struct{}{
	CategoryAntibiotics:   {},
	CategoryBloodPressure: {},
	CategoryDiabetes:      {},
}

// IsRegulatedCategory reports whether medicines in the category always need a prescription.
func IsRegulatedCategory(category string) bool {
	_, ok := regulatedCategories[category]
	return ok
}

// Medicine is one purchasable line of a pharmacy's inventory
type Medicine struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	GenericName          string  `json:"generic_name"`
	Dosage               string  `json:"dosage"`
	Price                float64 `json:"price"`
	Stock                int     `json:"stock"`
	Category             string  `json:"category"`
	PrescriptionRequired bool    `json:"prescription_required"`
	Description          string  `json:"description"`
}

// CatalogMedicine is a row from the backend medicine collection. Columns are nullable
// because the collection is maintained by hand from the inventory screens.
type CatalogMedicine struct {
	ID           *string   `json:"id,omitempty" db:"id"`
	Name         *string   `json:"name,omitempty" db:"name"`
	GenericName  *string   `json:"generic_name,omitempty" db:"generic_name"`
	Dosage       *string   `json:"dosage,omitempty" db:"dosage"`
	Price        *float64  `json:"price,omitempty" db:"price"`
	Stock        *int      `json:"stock,omitempty" db:"stock"`
	Category     *string   `json:"category,omitempty" db:"category"`
	Prescription *bool     `json:"prescription,omitempty" db:"prescription"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Usage        *string   `json:"usage,omitempty" db:"usage"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

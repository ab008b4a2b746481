package services

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

// medicineNamespace scopes the deterministic ids handed to synthetic and id-less catalog medicines.
var medicineNamespace = uuid.MustParse("5b0e7a39-2f63-4c4e-9d0a-3c1f4f7e8a21")

// BaseMedicine is one entry of the standard stock list every pharmacy is assumed to carry.
type BaseMedicine struct {
	Name         string
	GenericName  string
	Dosage       string
	Category     string
	Prescription bool
	BasePrice    float64
	Description  string
}

// BaseMedicines is the standard list, also used to seed the catalog table.
var BaseMedicines = []BaseMedicine{
	{"Acetaminophen", "Acetaminophen", "500mg", entities.CategoryPainRelief, false, 8.99,
		"Used to treat mild to moderate pain (from headaches, menstrual periods, toothaches, backaches, osteoarthritis, or cold/flu aches and pains) and to reduce fever."},
	{"Ibuprofen", "Ibuprofen", "200mg", entities.CategoryPainRelief, false, 12.50,
		"A nonsteroidal anti-inflammatory drug (NSAID) used for relieving pain, helping to reduce inflammation, and reducing a high temperature."},
	{"Amoxicillin", "Amoxicillin", "250mg", entities.CategoryAntibiotics, true, 25.00,
		"A penicillin-type antibiotic used to treat a wide variety of bacterial infections. It works by stopping the growth of bacteria."},
	{"Lisinopril", "Lisinopril", "10mg", entities.CategoryBloodPressure, true, 15.75,
		"Used to treat high blood pressure. Lowering high blood pressure helps prevent strokes, heart attacks, and kidney problems."},
	{"Metformin", "Metformin HCl", "500mg", entities.CategoryDiabetes, true, 19.99,
		"Used with a proper diet and exercise program and possibly with other medications to control high blood sugar in people with type 2 diabetes."},
	{"Disposable Syringe (2ml)", "Medical Syringe", "N/A", entities.CategorySurgicals, false, 0.50,
		"Sterile, single-use 2ml syringe for medical administration of fluids or medications."},
	{"Disposable Syringe (5ml)", "Medical Syringe", "N/A", entities.CategorySurgicals, false, 0.75,
		"Sterile, single-use 5ml syringe with needle, optimized for precise dosage measurement."},
	{"Insulin Syringe", "U-100 Syringe", "1ml (100 units)", entities.CategorySurgicals, false, 1.25,
		"Extra-fine needle syringe designed specifically for comfortable insulin delivery."},
	{"Digital Thermometer", "Thermometer", "N/A", entities.CategoryEquipment, false, 15.00,
		"High-precision digital thermometer for oral, axillary, or rectal temperature measurement."},
	{"Surgical Mask (Box of 50)", "3-Ply Face Mask", "N/A", entities.CategorySupplies, false, 10.00,
		"Protective 3-ply disposable surgical masks with elastic ear loops for daily protection."},
}

// urbanMedicines are stocked only by pharmacies in the urban band.
var urbanMedicines = []BaseMedicine{
	{"Allergy Relief", "Loratadine", "10mg", entities.CategoryAllergy, false, 14.99,
		"Antihistamine used to treat symptoms such as itching, runny nose, watery eyes, and sneezing from \"hay fever\" and other allergies."},
	{"ORS (Oral Rehydration Salts)", "ORS", "21.8g Sachet", entities.CategoryFirstAid, false, 2.00,
		"Used to treat dehydration due to diarrhea or heavy sweating."},
}

var chainKeywords = []string{"cvs", "walgreens", "rite aid", "duane reade", "apollo", "medplus"}

var categoryStockMultipliers = map[string]float64{
	entities.CategoryPainRelief:    1.5,
	"Vitamins":                     1.3,
	entities.CategoryAntibiotics:   0.8,
	entities.CategoryBloodPressure: 1.0,
	entities.CategoryDiabetes:      0.9,
	"Cholesterol":                  0.7,
	"Acid Reflux":                  1.1,
	entities.CategoryAllergy:       1.2,
	"Sleep Aid":                    0.9,
}

const (
	chainDiscount   = 0.95
	urbanPremium    = 1.1
	chainBaseStock  = 50
	indieBaseStock  = 25
	urbanStockBoost = 1.5
	outOfStockRate  = 0.1
)

// InventoryResolver attaches a medicine list to each facility. A non-empty backend catalog is
// shared by every facility; otherwise each facility gets a synthetic catalog derived from its
// name, location and id.
type InventoryResolver struct {
	catalog     repositories.MedicineCatalogRepository
	urban       geo.UrbanClassifier
	callTimeout time.Duration
}

// NewInventoryResolver creates a resolver. catalog may be nil when no database is configured.
func NewInventoryResolver(catalog repositories.MedicineCatalogRepository, urban geo.UrbanClassifier, callTimeout time.Duration) *InventoryResolver {
	return &InventoryResolver{
		catalog:     catalog,
		urban:       urban,
		callTimeout: callTimeout,
	}
}

// InventorySnapshot is the catalog state for one aggregation run.
type InventorySnapshot struct {
	live  []entities.Medicine
	urban geo.UrbanClassifier
}

// Snapshot reads the backend catalog once. A read failure or an empty table yields a snapshot
// that synthesizes inventory.
func (r *InventoryResolver) Snapshot(ctx context.Context) *InventorySnapshot {
	snap := &InventorySnapshot{urban: r.urban}
	if r.catalog == nil {
		return snap
	}

	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	rows, err := r.catalog.ListAll(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("medicine catalog unavailable, using synthetic inventory")
		return snap
	}
	snap.live = SanitizeCatalog(rows)
	return snap
}

// AttachInventory resolves the inventory of a single facility against a fresh snapshot.
func (r *InventoryResolver) AttachInventory(ctx context.Context, facility entities.RawFacility) []entities.Medicine {
	return r.Snapshot(ctx).AttachInventory(facility)
}

// UsesCatalog reports whether the snapshot serves the backend catalog.
func (s *InventorySnapshot) UsesCatalog() bool {
	return len(s.live) > 0
}

// AttachInventory returns the facility's medicines. Catalog medicines are copied so callers
// may not alias each other's slices.
func (s *InventorySnapshot) AttachInventory(facility entities.RawFacility) []entities.Medicine {
	if len(s.live) > 0 {
		out := make([]entities.Medicine, len(s.live))
		copy(out, s.live)
		return out
	}
	loc := facility.Location()
	return SyntheticInventory(facility.SourceID(), facility.DisplayName(), s.urban.IsUrban(loc.Latitude, loc.Longitude))
}

// SanitizeCatalog fills defaults for missing catalog fields and enforces the medicine
// invariants: non-negative price and stock, and a prescription flag on regulated categories.
func SanitizeCatalog(rows []*entities.CatalogMedicine) []entities.Medicine {
	out := make([]entities.Medicine, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		name := deref(row.Name, "Unknown Medicine")
		m := entities.Medicine{
			ID:          deref(row.ID, ""),
			Name:        name,
			GenericName: deref(row.GenericName, name),
			Dosage:      deref(row.Dosage, "N/A"),
			Category:    deref(row.Category, entities.CategoryGeneral),
			Description: deref(row.Description, deref(row.Usage, "No description available.")),
		}
		if m.ID == "" {
			m.ID = uuid.NewSHA1(medicineNamespace, []byte("catalog:"+strconv.Itoa(i)+":"+name)).String()
		}
		if row.Price != nil && *row.Price >= 0 && !math.IsNaN(*row.Price) && !math.IsInf(*row.Price, 0) {
			m.Price = *row.Price
		}
		if row.Stock != nil && *row.Stock >= 0 {
			m.Stock = *row.Stock
		}
		m.PrescriptionRequired = (row.Prescription != nil && *row.Prescription) || entities.IsRegulatedCategory(m.Category)
		out = append(out, m)
	}
	return out
}

// SyntheticInventory builds the catalog for a facility with no backend data. Chains get a
// discount and deeper stock, urban stores a premium and two extra items. The same facility id
// always yields the same catalog.
func SyntheticInventory(facilityID, facilityName string, urban bool) []entities.Medicine {
	chain := IsChainPharmacy(facilityName)
	rng := facilityRand(facilityID)

	list := BaseMedicines
	if urban {
		list = append(append([]BaseMedicine{}, BaseMedicines...), urbanMedicines...)
	}

	out := make([]entities.Medicine, 0, len(list))
	for _, b := range list {
		out = append(out, entities.Medicine{
			ID:                   uuid.NewSHA1(medicineNamespace, []byte(facilityID+"|"+b.Name)).String(),
			Name:                 b.Name,
			GenericName:          b.GenericName,
			Dosage:               b.Dosage,
			Price:                adjustPrice(b.BasePrice, chain, urban),
			Stock:                generateStock(rng, b.Category, chain, urban),
			Category:             b.Category,
			PrescriptionRequired: b.Prescription || entities.IsRegulatedCategory(b.Category),
			Description:          b.Description,
		})
	}
	return out
}

// IsChainPharmacy matches the facility name against known pharmacy chains.
func IsChainPharmacy(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range chainKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func adjustPrice(base float64, chain, urban bool) float64 {
	multiplier := 1.0
	if chain {
		multiplier *= chainDiscount
	}
	if urban {
		multiplier *= urbanPremium
	}
	return math.Round(base*multiplier*100) / 100
}

func generateStock(rng *rand.Rand, category string, chain, urban bool) int {
	base := float64(indieBaseStock)
	if chain {
		base = chainBaseStock
	}
	if urban {
		base *= urbanStockBoost
	}
	multiplier, ok := categoryStockMultipliers[category]
	if !ok {
		multiplier = 1.0
	}
	stock := int(math.Floor(base * multiplier * (0.5 + rng.Float64())))
	if rng.Float64() < outOfStockRate {
		return 0
	}
	return stock
}

func facilityRand(id string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

func deref(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

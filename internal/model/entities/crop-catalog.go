package entities

// CropCategory groups crop varieties that share a water-requirement table.
type CropCategory string

const (
	CategoryRice       CropCategory = "rice"
	CategoryCorn       CropCategory = "corn"
	CategoryVegetables CropCategory = "vegetables"
)

// Variety is one entry of a category table, in m³/day per hectare.
type Variety struct {
	Name        string  `json:"name"`
	Requirement float64 `json:"requirement"`
}

// catalog keeps declaration order: the first variety is the category default,
// the first category is the catalog default.
var catalog = []struct {
	category  CropCategory
	varieties []Variety
}{
	{CategoryRice, []Variety{{"Inbred", 8.5}, {"Hybrid", 10.0}}},
	{CategoryCorn, []Variety{{"Yellow", 6.0}, {"White", 5.5}}},
	{CategoryVegetables, []Variety{{"Leafy", 4.5}, {"Fruiting", 5.0}}},
}

// UnitWaterRequirement resolves the requirement of a variety. Lookup fails
// closed: an unknown variety gets its category default, an unknown category
// the catalog default. The resolved variety name is returned too.
func UnitWaterRequirement(category CropCategory, cropType string) (float64, string) {
	idx := 0
	for i, c := range catalog {
		if c.category == category {
			idx = i
			break
		}
	}
	vs := catalog[idx].varieties
	for _, v := range vs {
		if v.Name == cropType {
			return v.Requirement, v.Name
		}
	}
	return vs[0].Requirement, vs[0].Name
}

// Varieties lists the known varieties of a category, nil if unknown.
func Varieties(category CropCategory) []Variety {
	for _, c := range catalog {
		if c.category == category {
			out := make([]Variety, len(c.varieties))
			copy(out, c.varieties)
			return out
		}
	}
	return nil
}

// Categories in catalog order.
func Categories() []CropCategory {
	out := make([]CropCategory, len(catalog))
	for i, c := range catalog {
		out[i] = c.category
	}
	return out
}

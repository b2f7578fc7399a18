package model

// Vendor is an external recycling or collection partner.
type Vendor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Certified bool   `json:"certified"`
}

// Valid reports whether the vendor has an identity and a name.
func (v *Vendor) Valid() bool {
	return v.ID != "" && v.Name != ""
}

// DefaultVendors are installed when no stored state exists.
func DefaultVendors() []Vendor {
	return []Vendor{
		{ID: "v-eco1", Name: "EcoCycle Pvt Ltd", Contact: "eco@cycle.com", Certified: true},
		{ID: "v-green2", Name: "GreenLoop Recyclers", Contact: "ops@greenloop.io", Certified: true},
		{ID: "v-scrap3", Name: "City Scrap Co.", Contact: "hello@cityscrap.in", Certified: false},
	}
}

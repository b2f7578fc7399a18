package model

import "time"

// Department is the institutional unit that reported an item.
type Department string

// Departments.
const (
	DeptEngineering    Department = "Engineering"
	DeptSciences       Department = "Sciences"
	DeptHumanities     Department = "Humanities"
	DeptAdministration Department = "Administration"
	DeptHostel         Department = "Hostel"
	DeptOther          Department = "Other"
)

// Departments lists all departments in display order.
func Departments() []Department {
	return []Department{DeptEngineering, DeptSciences, DeptHumanities, DeptAdministration, DeptHostel, DeptOther}
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, v := range Departments() {
		if d == v {
			return true
		}
	}
	return false
}

// Category is the kind of equipment.
type Category string

// Categories.
const (
	CategoryComputer     Category = "Computer"
	CategoryProjector    Category = "Projector"
	CategoryLabEquipment Category = "Lab Equipment"
	CategoryMobileDevice Category = "Mobile Device"
	CategoryBattery      Category = "Battery"
	CategoryAccessory    Category = "Accessory"
	CategoryOther        Category = "Other"
)

// Categories lists all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryComputer, CategoryProjector, CategoryLabEquipment, CategoryMobileDevice,
		CategoryBattery, CategoryAccessory, CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// Condition is the physical state of an item at intake.
type Condition string

// Conditions.
const (
	ConditionGood Condition = "Good"
	ConditionFair Condition = "Fair"
	ConditionPoor Condition = "Poor"
	ConditionDead Condition = "Dead"
)

// Conditions lists all conditions in display order.
func Conditions() []Condition {
	return []Condition{ConditionGood, ConditionFair, ConditionPoor, ConditionDead}
}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	for _, v := range Conditions() {
		if c == v {
			return true
		}
	}
	return false
}

// ClassificationType is the disposal-handling class assigned at intake.
type ClassificationType string

// Classification types.
const (
	Recyclable ClassificationType = "Recyclable"
	Reusable   ClassificationType = "Reusable"
	Hazardous  ClassificationType = "Hazardous"
)

// ClassificationTypes lists all classification types in display order.
func ClassificationTypes() []ClassificationType {
	return []ClassificationType{Recyclable, Reusable, Hazardous}
}

// Valid reports whether t is a known classification type.
func (t ClassificationType) Valid() bool {
	return t == Recyclable || t == Reusable || t == Hazardous
}

// Classification is stored on the item once and never recomputed.
type Classification struct {
	Type  ClassificationType `json:"type"`
	Notes string             `json:"notes,omitempty"`
}

// Status is an item's lifecycle stage.
type Status string

// Item statuses.
const (
	StatusReported  Status = "Reported"
	StatusScheduled Status = "Scheduled"
	StatusCollected Status = "Collected"
	StatusSorted    Status = "Sorted"
	StatusProcessed Status = "Processed"
	StatusRecycled  Status = "Recycled"
	StatusDisposed  Status = "Disposed"
)

// Statuses lists all statuses in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusReported, StatusScheduled, StatusCollected, StatusSorted,
		StatusProcessed, StatusRecycled, StatusDisposed,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusDisposed
}

// AuditEntry records one stage transition (a QR scan).
type AuditEntry struct {
	Date   time.Time `json:"date"`
	User   string    `json:"user"`
	Stage  string    `json:"stage"`
	Status Status    `json:"status"`
}

// DisposalEntry records one disposal action.
type DisposalEntry struct {
	Date   time.Time `json:"date"`
	User   string    `json:"user"`
	Action string    `json:"action"`
}

// Item is a single tracked piece of e-waste.
type Item struct {
	ID              string          `json:"id"`
	QRID            string          `json:"qrId"`
	Name            string          `json:"name"`
	Department      Department      `json:"department"`
	Category        Category        `json:"category"`
	AgeMonths       int             `json:"ageMonths"`
	Condition       Condition       `json:"condition"`
	Notes           string          `json:"notes,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	Classification  Classification  `json:"classification"`
	PickupID        string          `json:"pickupId,omitempty"`
	AuditTrail      []AuditEntry    `json:"auditTrail,omitempty"`
	DisposalHistory []DisposalEntry `json:"disposalHistory,omitempty"`
	DisposedAt      *time.Time      `json:"disposedAt,omitempty"`
	DisposedBy      string          `json:"disposedBy,omitempty"`
}

// Valid reports whether the item carries an identity and only known enum
// values. Stored records failing this check are dropped on load.
func (it *Item) Valid() bool {
	return it.ID != "" &&
		it.Name != "" &&
		it.AgeMonths >= 0 &&
		it.Department.Valid() &&
		it.Category.Valid() &&
		it.Condition.Valid() &&
		it.Status.Valid() &&
		it.Classification.Type.Valid()
}

// Clone returns a deep copy so history slices are never shared between
// versions of the record.
func (it Item) Clone() Item {
	if it.AuditTrail != nil {
		it.AuditTrail = append([]AuditEntry(nil), it.AuditTrail...)
	}
	if it.DisposalHistory != nil {
		it.DisposalHistory = append([]DisposalEntry(nil), it.DisposalHistory...)
	}
	if it.DisposedAt != nil {
		t := *it.DisposedAt
		it.DisposedAt = &t
	}
	return it
}

// Package refdata holds the immutable reference tables the calculators read:
// material surface speeds, feed bands by tool diameter and thread-class
// geometry. Tables are loaded once and never modified afterwards.
package refdata

import "strings"

// Family groups materials that share high-speed-machining adjustments.
type Family string

const (
	FamilyAluminum  Family = "aluminum" // 6061 and 7075 wrought grades
	FamilyStainless Family = "stainless"
	FamilyHRS       Family = "hrs" // hot-rolled steel
	FamilyOther     Family = "other"
)

// ClassifyFamily derives a family from a material name. The loader only uses
// it for entries whose file record has no explicit family.
func ClassifyFamily(name string) Family {
	switch {
	case strings.Contains(name, "7075"), strings.Contains(name, "6061"):
		return FamilyAluminum
	case strings.Contains(name, "Stainless"):
		return FamilyStainless
	case strings.Contains(name, "HRS"):
		return FamilyHRS
	default:
		return FamilyOther
	}
}

func (f Family) valid() bool {
	switch f {
	case FamilyAluminum, FamilyStainless, FamilyHRS, FamilyOther:
		return true
	}
	return false
}

// MaterialProfile carries surface speeds (SFM) per operation. A zero value
// means the constant is absent and the calculator falls back.
type MaterialProfile struct {
	Name           string  `json:"name"`
	Family         Family  `json:"family"`
	SFMEndmill     float64 `json:"SFM_endmill"`
	SFMDrill       float64 `json:"SFM_drill"`
	SFMSpot        float64 `json:"SFM_spot"`
	SFMReamer      float64 `json:"SFM_reamer"`
	SFMThread      float64 `json:"SFM_thread"`
	SFMShellmill   float64 `json:"SFM_shellmill"`
	SFMCountersink float64 `json:"SFM_countersink"`
}

// Category selects a feed dataset.
type Category string

const (
	CategoryEndmill     Category = "endmill"
	CategoryShellMill   Category = "shell_mill"
	CategoryDrill       Category = "drill"
	CategoryReamer      Category = "reamer"
	CategorySpot        Category = "spot"
	CategoryCenterDrill Category = "center drill"
	CategoryCountersink Category = "countersink"
)

// HoleMaking reports whether the category is a drilling subtype. Those share
// the generic drill dataset when they have none of their own.
func (c Category) HoleMaking() bool {
	switch c {
	case CategoryDrill, CategoryReamer, CategorySpot, CategoryCenterDrill, CategoryCountersink:
		return true
	}
	return false
}

// Band is one diameter range of a feed table: diameters up to and including
// Max use Value (inches per tooth for mills, per revolution for drills).
type Band struct {
	Max   float64 `json:"max"`
	Value float64 `json:"val"`
}

// FeedTable maps category and material name to bands.
type FeedTable map[Category]map[string][]Band

// DefaultFeed is returned when no feed data exists for a category/material.
const DefaultFeed = 0.002

// ThreadType tags a class record as an internal (nut) or external (bolt) thread.
type ThreadType string

const (
	ThreadInternal ThreadType = "internal"
	ThreadExternal ThreadType = "external"
)

// ThreadClass is the geometry of one thread class. Nil fields are absent from
// the table.
type ThreadClass struct {
	Type           ThreadType `json:"type"`
	MajorDiaMin    *float64   `json:"major_dia_min,omitempty"`
	MajorDiaMax    *float64   `json:"major_dia_max,omitempty"`
	MinorDiaMin    *float64   `json:"minor_dia_min,omitempty"`
	MinorDiaMax    *float64   `json:"minor_dia_max,omitempty"`
	PitchDiaMin    *float64   `json:"pitch_dia_min,omitempty"`
	PitchDiaMax    *float64   `json:"pitch_dia_max,omitempty"`
	Allowance      *float64   `json:"allowance,omitempty"`
	UNRMinorDiaMax *float64   `json:"unr_minor_dia_max,omitempty"`
}

// ThreadSize is a nominal size in a series: its pitch (inches) and classes.
type ThreadSize struct {
	Pitch   float64
	Classes map[string]ThreadClass
	order   []string
}

// ClassNames lists the classes in table order.
func (s ThreadSize) ClassNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Provider is the read-only reference data the calculators depend on.
type Provider interface {
	Material(name string) (MaterialProfile, bool)
	Feed(category Category, material string, diameter float64) float64
	Thread(series, size, class string) (ThreadSize, ThreadClass, error)
}

// Catalog lists reference keys for form dropdowns.
type Catalog interface {
	Materials() []string
	ThreadSeries() []string
	ThreadSizes(series string) ([]string, error)
	ThreadClasses(series, size string) ([]string, error)
}

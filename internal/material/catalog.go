// Package material holds the enumerated material catalog and reads material
// definitions out of the engine's per-category library files.
package material

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrLookup is returned when a category, name or block index does not exist
	ErrLookup = errors.New("material lookup failed")
	// ErrResource is returned when a library file cannot be read
	ErrResource = errors.New("material library unreadable")
)

// LookupError reports a catalog or library miss
type LookupError struct {
	Category Category
	Name     string
	Index    int
	Reason   string
}

func (e *LookupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("material %s/%s: %s", e.Category, e.Name, e.Reason)
	}
	return fmt.Sprintf("material %s #%d: %s", e.Category, e.Index, e.Reason)
}

func (e *LookupError) Unwrap() error { return ErrLookup }

// ResourceError wraps an I/O failure on a library file
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("material library %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() []error { return []error{ErrResource, e.Err} }

// Category names one library file
type Category string

const (
	Dielectrics    Category = "Dielectrics"
	Metals         Category = "Metals"
	Semiconductors Category = "Semiconductors"
	Special        Category = "Special"
	TCAD           Category = "TCAD"
)

// catalog lists each category's materials in library order; position+1 is the block index.
var catalog = map[Category][]string{
	Dielectrics:    {"Air", "ITO", "LiNbO3_e", "LiNbO3_o", "PMMA", "Si3N4", "SiO2"},
	Metals:         {"Ag", "Al", "Au", "Be", "Cr", "Cu", "Ni", "Pd", "Pt", "Ti", "W"},
	Semiconductors: {"AlAs", "AlGaAs", "AsPGa", "GaAs", "GaInAsP", "GaN", "GaP", "Ge", "InAs", "InGaAs", "InP", "Si", "SiGe", "Si_amorphous"},
	Special:        {"Graphene", "GrapheneCX", "GrapheneCY", "GrapheneCZ", "PEC"},
	TCAD:           {"AlAs", "AlGaAs", "Aluminum", "Copper", "GaAs", "Gas", "Germanium", "Gold", "InAs", "InGaAs", "Nitride", "Oxide", "PolySilicon", "Silicon", "Silver", "Tungsten"},
}

// Categories returns every known category in a stable order
func Categories() []Category {
	return []Category{Dielectrics, Metals, Semiconductors, Special, TCAD}
}

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", &LookupError{Category: Category(s), Name: "*", Reason: "unknown category"}
}

// Names returns the materials of a category in library order
func Names(c Category) []string {
	return slices.Clone(catalog[c])
}

// Ref identifies one catalog entry
type Ref struct {
	Category Category
	Name     string
	Index    int // 1-based position in the category's library file
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Category, r.Name)
}

// Lookup resolves (category, name) to a catalog reference
func Lookup(c Category, name string) (Ref, error) {
	names, ok := catalog[c]
	if !ok {
		return Ref{}, &LookupError{Category: c, Name: name, Reason: "unknown category"}
	}
	i := slices.Index(names, name)
	if i < 0 {
		return Ref{}, &LookupError{Category: c, Name: name, Reason: "not in catalog"}
	}
	return Ref{Category: c, Name: name, Index: i + 1}, nil
}

// ByIndex resolves a 1-based catalog index within a category
func ByIndex(c Category, index int) (Ref, error) {
	names, ok := catalog[c]
	if !ok {
		return Ref{}, &LookupError{Category: c, Index: index, Reason: "unknown category"}
	}
	if index < 1 || index > len(names) {
		return Ref{}, &LookupError{Category: c, Index: index, Reason: fmt.Sprintf("index out of range 1..%d", len(names))}
	}
	return Ref{Category: c, Name: names[index-1], Index: index}, nil
}

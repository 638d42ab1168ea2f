package domain

import (
	"fmt"
	"math"
)

// Unit is a volume unit an intake amount can be logged in
type Unit string

const (
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitCup        Unit = "cups"
	UnitFluidOunce Unit = "oz"
)

// AllUnits contains all valid units in display order
var AllUnits = []Unit{UnitMilliliter, UnitLiter, UnitCup, UnitFluidOunce}

// IsValid checks if a unit is one of the known units
func (u Unit) IsValid() bool {
	switch u {
	case UnitMilliliter, UnitLiter, UnitCup, UnitFluidOunce:
		return true
	}
	return false
}

// String returns the string representation of the unit
func (u Unit) String() string {
	return string(u)
}

// Factor returns how many milliliters one of this unit holds.
func (u Unit) Factor() float64 {
	switch u {
	case UnitMilliliter:
		return 1
	case UnitLiter:
		return 1000
	case UnitCup:
		return 240
	case UnitFluidOunce:
		return 29.5735
	default:
		return 0
	}
}

// DisplayName returns the label shown next to an amount
func (u Unit) DisplayName() string {
	switch u {
	case UnitMilliliter:
		return "ml"
	case UnitLiter:
		return "L"
	case UnitCup:
		return "cups"
	case UnitFluidOunce:
		return "fl oz"
	default:
		return string(u)
	}
}

// ParseUnit converts a raw string into a Unit, rejecting unknown values.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// ToMilliliters converts amount in unit to whole milliliters, rounding to nearest.
func ToMilliliters(amount float64, unit Unit) (int, error) {
	if !unit.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, string(unit))
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	return int(math.Round(amount * unit.Factor())), nil
}

// FormatMilliliters renders ml as liters with one decimal from 1000ml up, else as whole ml.
func FormatMilliliters(ml int) string {
	if ml >= 1000 {
		return fmt.Sprintf("%.1fL", float64(ml)/1000)
	}
	return fmt.Sprintf("%dml", ml)
}

// QuickAddPreset is a one-tap intake amount offered by the UI
type QuickAddPreset struct {
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
	Label  string  `json:"label"`
}

// QuickAddPresets are the default one-tap amounts
var QuickAddPresets = []QuickAddPreset{
	{Amount: 250, Unit: UnitMilliliter, Label: "Glass"},
	{Amount: 500, Unit: UnitMilliliter, Label: "Bottle"},
	{Amount: 1, Unit: UnitLiter, Label: "Large Bottle"},
	{Amount: 1, Unit: UnitCup, Label: "Cup"},
}

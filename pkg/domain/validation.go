package domain

import "strings"

// Physical and format limits enforced by the field validation guard.
const (
	// MaxRollLengthMeters is the longest roll the warehouse equipment can
	// handle. Lengths are exclusive at zero and inclusive at the maximum.
	MaxRollLengthMeters = 1000.0
	// MinBarcodeLength is the minimum number of characters a barcode must
	// keep after trimming surrounding whitespace.
	MinBarcodeLength = 3
)

// lockedRollAllowedFields are the only patch fields a sold roll accepts.
// Location stays mutable so warehouse corrections remain possible after a
// sale; everything else is frozen with the record.
var lockedRollAllowedFields = []string{"location"}

// CheckCreate validates caller-supplied fields for a new roll. Checks run
// in a fixed order and the first failure wins: length bounds, then barcode
// format. A nil return means the input is acceptable to persist.
func CheckCreate(input CreateRollInput) error {
	if err := checkLength(input.LengthMeters); err != nil {
		return err
	}
	return checkBarcode(input.Barcode)
}

// CheckUpdate validates a partial update against the current state of the
// roll. An empty patch is a successful no-op. Sold rolls reject every
// field except location, reporting all offending fields at once. For live
// rolls a present status delegates to CheckTransition and present length
// and barcode fields get the same bounds checks as creation.
func CheckUpdate(current Roll, patch RollPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if current.Status == StatusSold {
		var invalid []string
		for _, field := range patch.Fields() {
			if !fieldAllowedWhenLocked(field) {
				invalid = append(invalid, field)
			}
		}
		if len(invalid) > 0 {
			return &LockedRecordError{
				ID:            current.ID,
				InvalidFields: invalid,
				AllowedFields: copyStrings(lockedRollAllowedFields),
			}
		}
		return nil
	}
	if patch.Status != nil && *patch.Status != current.Status {
		if err := CheckTransition(current.Status, *patch.Status); err != nil {
			return err
		}
	}
	if patch.LengthMeters != nil {
		if err := checkLength(*patch.LengthMeters); err != nil {
			return err
		}
	}
	if patch.Barcode != nil {
		if err := checkBarcode(*patch.Barcode); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRollDelete accepts every delete today. Deletion restrictions
// (open orders, retention holds) live outside this core; the hook exists
// so the service layer has a single seam when they arrive.
func ValidateRollDelete(Roll) error {
	return nil
}

func checkLength(meters float64) error {
	if meters <= 0 {
		return &InvalidLengthError{Provided: meters}
	}
	if meters > MaxRollLengthMeters {
		return &LengthTooLargeError{Limit: MaxRollLengthMeters, Provided: meters}
	}
	return nil
}

func checkBarcode(barcode string) error {
	if len(strings.TrimSpace(barcode)) < MinBarcodeLength {
		return &InvalidBarcodeError{Barcode: barcode, MinLength: MinBarcodeLength}
	}
	return nil
}

func fieldAllowedWhenLocked(field string) bool {
	for _, allowed := range lockedRollAllowedFields {
		if field == allowed {
			return true
		}
	}
	return false
}

func copyStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

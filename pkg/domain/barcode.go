package domain

// CheckBarcodeAvailable decides whether a barcode may be assigned to a
// roll. The caller supplies the candidate rolls to check against, which
// keeps this guard free of storage concerns; passing every roll sharing
// the barcode is sufficient. excludeID removes the roll being updated from
// consideration so a record never conflicts with itself.
//
// Sold rolls do not hold a claim: their barcode may be reissued to new
// stock. The first active holder found is reported in the error.
func CheckBarcodeAvailable(barcode string, candidates []Roll, excludeID string) error {
	for _, candidate := range candidates {
		if candidate.Barcode != barcode {
			continue
		}
		if excludeID != "" && candidate.ID == excludeID {
			continue
		}
		if candidate.Status == StatusSold {
			continue
		}
		return &BarcodeConflictError{
			Barcode:      barcode,
			HolderID:     candidate.ID,
			HolderStatus: candidate.Status,
		}
	}
	return nil
}

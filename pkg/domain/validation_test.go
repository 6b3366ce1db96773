package domain

import (
	"errors"
	"testing"
)

func validCreateInput() CreateRollInput {
	return CreateRollInput{
		Barcode:      "RL-0001",
		LengthMeters: 42.5,
		CatalogID:    "cat-linen",
		Location:     "A-01-03",
	}
}

func TestCheckCreateAcceptsValidInput(t *testing.T) {
	if err := CheckCreate(validCreateInput()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	boundary := validCreateInput()
	boundary.LengthMeters = MaxRollLengthMeters
	if err := CheckCreate(boundary); err != nil {
		t.Fatalf("maximum length must be inclusive, got %v", err)
	}
}

func TestCheckCreateLengthBounds(t *testing.T) {
	zero := validCreateInput()
	zero.LengthMeters = 0
	var invalidLength *InvalidLengthError
	if err := CheckCreate(zero); !errors.As(err, &invalidLength) {
		t.Fatalf("expected InvalidLengthError for zero length, got %v", err)
	}
	if invalidLength.Provided != 0 {
		t.Fatalf("unexpected payload: %+v", invalidLength)
	}

	negative := validCreateInput()
	negative.LengthMeters = -12
	if err := CheckCreate(negative); !errors.As(err, &invalidLength) {
		t.Fatalf("expected InvalidLengthError for negative length, got %v", err)
	}

	huge := validCreateInput()
	huge.LengthMeters = 1000.5
	var tooLarge *LengthTooLargeError
	if err := CheckCreate(huge); !errors.As(err, &tooLarge) {
		t.Fatalf("expected LengthTooLargeError, got %v", err)
	}
	if tooLarge.Limit != MaxRollLengthMeters || tooLarge.Provided != 1000.5 {
		t.Fatalf("unexpected payload: %+v", tooLarge)
	}
}

func TestCheckCreateBarcodeFormat(t *testing.T) {
	cases := []struct {
		barcode string
		ok      bool
	}{
		{"RL-0001", true},
		{"abc", true},
		{"  abc  ", true},
		{"ab", false},
		{"  ab  ", false},
		{"   ", false},
		{"", false},
	}
	for _, tc := range cases {
		input := validCreateInput()
		input.Barcode = tc.barcode
		err := CheckCreate(input)
		if tc.ok && err != nil {
			t.Fatalf("barcode %q: expected success, got %v", tc.barcode, err)
		}
		if !tc.ok {
			var invalid *InvalidBarcodeError
			if !errors.As(err, &invalid) {
				t.Fatalf("barcode %q: expected InvalidBarcodeError, got %v", tc.barcode, err)
			}
			if invalid.Barcode != tc.barcode || invalid.MinLength != MinBarcodeLength {
				t.Fatalf("barcode %q: unexpected payload %+v", tc.barcode, invalid)
			}
		}
	}
}

func TestCheckCreateOrderLengthBeforeBarcode(t *testing.T) {
	input := CreateRollInput{Barcode: "x", LengthMeters: -1}
	var invalidLength *InvalidLengthError
	if err := CheckCreate(input); !errors.As(err, &invalidLength) {
		t.Fatalf("length check must run before barcode check, got %v", err)
	}
}

func TestCheckUpdateEmptyPatch(t *testing.T) {
	current := Roll{Base: Base{ID: "r1"}, Status: StatusSold, Barcode: "RL-0001"}
	if err := CheckUpdate(current, RollPatch{}); err != nil {
		t.Fatalf("empty patch must succeed even on sold rolls, got %v", err)
	}
}

func TestCheckUpdateSoldLocksFields(t *testing.T) {
	current := Roll{Base: Base{ID: "r1"}, Status: StatusSold, Barcode: "RL-0001", LengthMeters: 40}

	location := "B-02-07"
	if err := CheckUpdate(current, RollPatch{Location: &location}); err != nil {
		t.Fatalf("location must stay mutable on sold rolls, got %v", err)
	}

	barcode := "RL-0002"
	status := StatusInStock
	length := 12.0
	patch := RollPatch{Barcode: &barcode, Status: &status, LengthMeters: &length, Location: &location}
	err := CheckUpdate(current, patch)
	var locked *LockedRecordError
	if !errors.As(err, &locked) {
		t.Fatalf("expected LockedRecordError, got %v", err)
	}
	if locked.ID != "r1" {
		t.Fatalf("unexpected record id %q", locked.ID)
	}
	want := []string{"barcode", "status", "length_meters"}
	if len(locked.InvalidFields) != len(want) {
		t.Fatalf("expected all offending fields reported, got %v", locked.InvalidFields)
	}
	for i, field := range want {
		if locked.InvalidFields[i] != field {
			t.Fatalf("expected field %q at position %d, got %v", field, i, locked.InvalidFields)
		}
	}
	if len(locked.AllowedFields) != 1 || locked.AllowedFields[0] != "location" {
		t.Fatalf("unexpected allowed fields %v", locked.AllowedFields)
	}
}

func TestCheckUpdateSoldRejectsSameStatusWrite(t *testing.T) {
	current := Roll{Base: Base{ID: "r1"}, Status: StatusSold}
	status := StatusSold
	err := CheckUpdate(current, RollPatch{Status: &status})
	var locked *LockedRecordError
	if !errors.As(err, &locked) {
		t.Fatalf("explicit status writes on sold rolls must be rejected, got %v", err)
	}
}

func TestCheckUpdateDelegatesStatusTransition(t *testing.T) {
	current := Roll{Base: Base{ID: "r1"}, Status: StatusReserved}
	status := StatusSold
	if err := CheckUpdate(current, RollPatch{Status: &status}); err != nil {
		t.Fatalf("reserved -> sold must pass, got %v", err)
	}

	current.Status = StatusInStock
	bogus := RollStatus("returned")
	err := CheckUpdate(current, RollPatch{Status: &bogus})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != StatusInStock || invalid.To != bogus {
		t.Fatalf("unexpected payload: %+v", invalid)
	}
}

func TestCheckUpdateLengthAndBarcode(t *testing.T) {
	current := Roll{Base: Base{ID: "r1"}, Status: StatusInStock, LengthMeters: 50}

	length := 2000.0
	var tooLarge *LengthTooLargeError
	if err := CheckUpdate(current, RollPatch{LengthMeters: &length}); !errors.As(err, &tooLarge) {
		t.Fatalf("expected LengthTooLargeError, got %v", err)
	}

	short := "x"
	var invalidBarcode *InvalidBarcodeError
	if err := CheckUpdate(current, RollPatch{Barcode: &short}); !errors.As(err, &invalidBarcode) {
		t.Fatalf("expected InvalidBarcodeError, got %v", err)
	}

	fine := 77.0
	barcode := "RL-0002"
	if err := CheckUpdate(current, RollPatch{LengthMeters: &fine, Barcode: &barcode}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestValidateRollDeleteAlwaysAccepts(t *testing.T) {
	for _, status := range KnownStatuses() {
		if err := ValidateRollDelete(Roll{Base: Base{ID: "r1"}, Status: status}); err != nil {
			t.Fatalf("delete validation must accept %s rolls, got %v", status, err)
		}
	}
}

func TestPatchFieldsAndIsEmpty(t *testing.T) {
	if !(RollPatch{}).IsEmpty() {
		t.Fatalf("zero patch must be empty")
	}
	if fields := (RollPatch{}).Fields(); len(fields) != 0 {
		t.Fatalf("zero patch must report no fields, got %v", fields)
	}
	catalog := "cat-wool"
	location := "C-11"
	patch := RollPatch{CatalogID: &catalog, Location: &location}
	if patch.IsEmpty() {
		t.Fatalf("patch with fields must not be empty")
	}
	fields := patch.Fields()
	if len(fields) != 2 || fields[0] != "catalog_id" || fields[1] != "location" {
		t.Fatalf("fields must follow declaration order, got %v", fields)
	}
}

package core

import (
	"encoding/json"
	"testing"

	"rollcore/pkg/domain"
)

func TestDecodeChangePayload(t *testing.T) {
	roll := Roll{Base: domain.Base{ID: "r-9"}, Barcode: "RL-9", Status: StatusReserved, LengthMeters: 4.5}
	payload := mustChangePayload(t, roll)

	decoded, ok := decodeChangePayload[Roll](payload)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if decoded.ID != roll.ID || decoded.Barcode != roll.Barcode || decoded.Status != roll.Status {
		t.Fatalf("unexpected decode result: %+v", decoded)
	}

	if _, ok := decodeChangePayload[Roll](domain.UndefinedChangePayload()); ok {
		t.Fatalf("undefined payload must not decode")
	}
	if _, ok := decodeChangePayload[Roll](domain.NewChangePayload(nil)); ok {
		t.Fatalf("empty payload must not decode")
	}
	if _, ok := decodeChangePayload[Roll](domain.NewChangePayload(json.RawMessage(`{"length_meters":"oops"`))); ok {
		t.Fatalf("malformed payload must not decode")
	}
}

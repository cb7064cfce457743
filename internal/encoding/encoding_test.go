package encoding

import (
	"math"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{name: "simple vector", vector: []float32{1.0, 2.0, 3.0}},
		{name: "empty vector", vector: []float32{}},
		{name: "single element", vector: []float32{42.0}},
		{name: "negative values", vector: []float32{-1.5, 0.0, 2.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeVector(tt.vector)
			if err != nil {
				t.Fatalf("EncodeVector() error = %v", err)
			}

			decoded, err := DecodeVector(encoded)
			if err != nil {
				t.Fatalf("DecodeVector() error = %v", err)
			}

			if len(decoded) != len(tt.vector) {
				t.Fatalf("decoded length = %d, want %d", len(decoded), len(tt.vector))
			}

			for i, v := range decoded {
				if v != tt.vector[i] {
					t.Errorf("decoded[%d] = %v, want %v", i, v, tt.vector[i])
				}
			}
		})
	}
}

func TestEncodeVectorNil(t *testing.T) {
	if _, err := EncodeVector(nil); err == nil {
		t.Error("expected error for nil vector")
	}
}

func TestDecodeVectorCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "too short", data: []byte{1, 2}},
		{name: "negative length", data: []byte{0xff, 0xff, 0xff, 0xff}},
		{name: "truncated body", data: []byte{2, 0, 0, 0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeVector(tt.data); err == nil {
				t.Error("expected error for corrupt data")
			}
		})
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		vector  []float32
		wantErr bool
	}{
		{name: "valid", vector: []float32{0.1, 0.2}, wantErr: false},
		{name: "nil", vector: nil, wantErr: true},
		{name: "empty", vector: []float32{}, wantErr: true},
		{name: "NaN", vector: []float32{float32(math.NaN())}, wantErr: true},
		{name: "infinity", vector: []float32{float32(math.Inf(1))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.vector)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVector() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	type sample struct {
		Word string   `json:"word"`
		Tags []string `json:"tags"`
	}

	in := sample{Word: "ephemeral", Tags: []string{"adjective", "time"}}

	payload, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}

	var out sample
	if err := DecodePayload(payload, &out); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}

	if out.Word != in.Word || len(out.Tags) != len(in.Tags) {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodePayloadCorrupt(t *testing.T) {
	var out map[string]any
	if err := DecodePayload("{not json", &out); err == nil {
		t.Error("expected error for corrupt payload")
	}
}

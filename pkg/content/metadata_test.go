package content

import (
	"testing"
	"time"
)

func TestMetadata_Time(t *testing.T) {
	ts := time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		md          Metadata
		want        time.Time
		wantPresent bool
		wantErr     bool
	}{
		{name: "missing", md: Metadata{}},
		{name: "nil value", md: Metadata{"created": nil}},
		{name: "time value", md: Metadata{"created": ts}, want: ts, wantPresent: true},
		{name: "time pointer", md: Metadata{"created": &ts}, want: ts, wantPresent: true},
		{name: "millis string", md: Metadata{"created": "2023-01-15T10:30:00.000Z"}, want: ts, wantPresent: true},
		{name: "rfc3339 string", md: Metadata{"created": "2023-01-15T10:30:00Z"}, want: ts, wantPresent: true},
		{name: "date only", md: Metadata{"created": "2023-01-15"}, want: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), wantPresent: true},
		{name: "garbage", md: Metadata{"created": "yesterday"}, wantPresent: true, wantErr: true},
		{name: "wrong type", md: Metadata{"created": 42}, wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := tt.md.Time("created")
			if present != tt.wantPresent {
				t.Errorf("present = %v, want %v", present, tt.wantPresent)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_StringAndClone(t *testing.T) {
	md := Metadata{"status": "COMPLETED", "count": 3}

	if s, ok := md.String("status"); !ok || s != "COMPLETED" {
		t.Errorf("String(status) = %q, %v", s, ok)
	}
	if _, ok := md.String("count"); ok {
		t.Error("String(count) should not succeed for a number")
	}
	if _, ok := md.String("missing"); ok {
		t.Error("String(missing) should not succeed")
	}

	cp := md.Clone()
	cp["status"] = "DRAFT"
	if s, _ := md.String("status"); s != "COMPLETED" {
		t.Errorf("Clone shares storage with original: %q", s)
	}
	if Metadata(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

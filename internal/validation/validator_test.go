// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"
)

type slotRequest struct {
	Title     string `json:"title" validate:"required,max=20"`
	Keep      int    `json:"keep_at_most" validate:"gte=0"`
	Timeslots []int  `json:"timeslots" validate:"dive,hourofweek"`
}

type swapRequest struct {
	Old int64 `json:"old" validate:"required,gt=0"`
	New int64 `json:"new" validate:"required,gt=0,nefield=Old"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"valid", &slotRequest{Title: "Nova", Timeslots: []int{0, 167}}, "", ""},
		{"missing title", &slotRequest{}, "title", "required"},
		{"long title", &slotRequest{Title: strings.Repeat("x", 21)}, "title", "max"},
		{"negative keep", &slotRequest{Title: "Nova", Keep: -1}, "keep_at_most", "gte"},
		{"slot out of range", &slotRequest{Title: "Nova", Timeslots: []int{168}}, "timeslots[0]", "hourofweek"},
		{"negative slot", &slotRequest{Title: "Nova", Timeslots: []int{3, -1}}, "timeslots[1]", "hourofweek"},
		{"valid swap", &swapRequest{Old: 1, New: 2}, "", ""},
		{"swap to self", &swapRequest{Old: 1, New: 1}, "new", "nefield"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() error = nil, want error")
			}
			got := err.Errors()[0]
			if got.Field() != tt.wantField || got.Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", got.Field(), got.Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		apiErr := ValidateStruct(&slotRequest{}).ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Message != "title is required" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if apiErr.Details["field"] != "title" {
			t.Errorf("Details[field] = %v, want title", apiErr.Details["field"])
		}
	})

	t.Run("multiple", func(t *testing.T) {
		apiErr := ValidateStruct(&swapRequest{}).ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details[fields] = %v, want two entries", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "old is required") || !strings.Contains(apiErr.Message, "new is required") {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{&slotRequest{Title: strings.Repeat("x", 21)}, "title must be at most 20 characters"},
		{&slotRequest{Title: "Nova", Keep: -2}, "keep_at_most must be greater than or equal to 0"},
		{&slotRequest{Title: "Nova", Timeslots: []int{200}}, "timeslots[0] must be an hour of the week (0-167)"},
		{&swapRequest{Old: 4, New: 4}, "new must differ from Old"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ValidateStruct(tt.input).Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

package candidate

import "testing"

func TestAnnotation_Valid(t *testing.T) {
	tests := []struct {
		name string
		a    Annotation
		want bool
	}{
		{"bounds", Annotation{Availability: 0, LearningVelocity: 1}, true},
		{"middle", Annotation{Availability: 0.4, LearningVelocity: 0.7, CareerPattern: "climber"}, true},
		{"availability high", Annotation{Availability: 1.2}, false},
		{"velocity negative", Annotation{LearningVelocity: -0.1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

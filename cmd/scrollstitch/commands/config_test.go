package commands

import "testing"

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		current interface{}
		value   string
		want    interface{}
		wantErr bool
	}{
		{"int", 50, "100", 100, false},
		{"bad int", 50, "many", nil, true},
		{"float", 0.95, "0.9", 0.9, false},
		{"bool", false, "true", true, false},
		{"duration string", "30ms", "150ms", "150ms", false},
		{"string", "png", "jpeg", "jpeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(tt.current, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

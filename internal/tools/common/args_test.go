package common

import "testing"

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"a": "x", "n": 3.0, "empty": ""}

	if got := StringArg(args, "a"); got != "x" {
		t.Errorf("StringArg(a) = %q", got)
	}
	if got := StringArg(args, "n"); got != "" {
		t.Errorf("StringArg(n) = %q, want empty for non-string", got)
	}
	if got := StringArg(nil, "a"); got != "" {
		t.Errorf("StringArg(nil) = %q", got)
	}
	if got := StringArgDefault(args, "empty", "primary"); got != "primary" {
		t.Errorf("StringArgDefault(empty) = %q", got)
	}
	if got := StringArgDefault(args, "a", "primary"); got != "x" {
		t.Errorf("StringArgDefault(a) = %q", got)
	}
}

func TestBoolArg(t *testing.T) {
	tests := []struct {
		value  interface{}
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{"false", false, true},
		{"yes", false, false},
		{1.0, false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		got, ok := BoolArg(map[string]interface{}{"b": tt.value}, "b")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("BoolArg(%v) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantOK  bool
		wantErr bool
	}{
		{"json number", 100.0, 100, true, false},
		{"int", 7, 7, true, false},
		{"numeric string", "42", 42, true, false},
		{"fraction", 1.5, 0, false, true},
		{"word", "many", 0, false, true},
		{"bool", true, 0, false, true},
		{"nil", nil, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := IntArg(map[string]interface{}{"n": tt.value}, "n")
			if (err != nil) != tt.wantErr {
				t.Fatalf("IntArg() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("IntArg() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, ok, err := IntArg(map[string]interface{}{}, "missing"); ok || err != nil {
		t.Errorf("IntArg(missing) = ok %v, err %v", ok, err)
	}
}

package bbs

import "testing"

func TestIsKiriban(t *testing.T) {
	tests := []struct {
		n    int64
		want bool
	}{
		{0, false},
		{-100, false},
		{1, false},
		{7, false},
		{10, false},
		{42, false},
		{77, true},     // repdigit
		{100, true},    // multiple of 100
		{111, true},    // repdigit
		{123, false},
		{1000, true},   // multiple of 1000
		{1234, false},
		{7777, true},   // repdigit
		{10000, true},
		{12300, true},  // multiple of 100
		{99999, true},  // repdigit
		{100001, false},
	}
	for _, tt := range tests {
		if got := IsKiriban(tt.n); got != tt.want {
			t.Errorf("IsKiriban(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

package main

import (
	"reflect"
	"testing"
)

func TestParseTiles(t *testing.T) {
	testCases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "0,7", want: []int{0, 7}},
		{in: " 3 ", want: []int{3}},
		{in: "0-3,7", want: []int{0, 1, 2, 3, 7}},
		{in: "", wantErr: true},
		{in: "a", wantErr: true},
		{in: "3-1", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "8", wantErr: true},
		{in: "0-1000000000", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseTiles(tc.in, 8)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

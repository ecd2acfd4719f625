package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectLineLookupArgs(t *testing.T) {
	t.Parallel()

	const id = "0b6f1c2e-8a53-4f7e-9d51-3c2a1e0f9b77"
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"repertoire"},
			want: []string{"repertoire"},
		},
		{
			name: "direct line id first token",
			in:   []string{"repertoire", id},
			want: []string{"repertoire", "lines", "show", id},
		},
		{
			name: "direct line id after value flag",
			in:   []string{"repertoire", "--dir", "./tmp-test-ws", id},
			want: []string{"repertoire", "--dir", "./tmp-test-ws", "lines", "show", id},
		},
		{
			name: "direct line id after equals flag",
			in:   []string{"repertoire", "--format=yaml", id},
			want: []string{"repertoire", "--format=yaml", "lines", "show", id},
		},
		{
			name: "direct line id after bool flag",
			in:   []string{"repertoire", "--pretty", id},
			want: []string{"repertoire", "--pretty", "lines", "show", id},
		},
		{
			name: "direct line id after double dash",
			in:   []string{"repertoire", "--log-level", "debug", "--", id},
			want: []string{"repertoire", "--log-level", "debug", "--", "lines", "show", id},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"repertoire", "lines", "show", id},
			want: []string{"repertoire", "lines", "show", id},
		},
		{
			name: "root ids are not line ids",
			in:   []string{"repertoire", "w"},
			want: []string{"repertoire", "w"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLineLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectLineLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

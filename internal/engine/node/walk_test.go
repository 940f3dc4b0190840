package node

import (
	"testing"

	"github.com/dshills/treestorm/internal/engine/location"
)

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWalk(t *testing.T) {
	root := sampleRoot()
	tests := []struct {
		name string
		opts WalkOptions
		want []string
	}{
		{
			name: "all",
			want: []string{"[]", "[0]", "[0,0]", "[0,1]", "[0,1,0]", "[0,2]", "[1]", "[1,0]"},
		},
		{
			name: "reverse",
			opts: WalkOptions{Reverse: true},
			want: []string{"[]", "[1]", "[1,0]", "[0]", "[0,2]", "[0,1]", "[0,1,0]", "[0,0]"},
		},
		{
			name: "from",
			opts: WalkOptions{From: location.Path{0, 2}},
			want: []string{"[]", "[0]", "[0,2]", "[1]", "[1,0]"},
		},
		{
			name: "from to",
			opts: WalkOptions{From: location.Path{0, 1}, To: location.Path{0, 2}},
			want: []string{"[]", "[0]", "[0,1]", "[0,1,0]", "[0,2]"},
		},
		{
			name: "reverse from to",
			opts: WalkOptions{Reverse: true, From: location.Path{1, 0}, To: location.Path{0, 2}},
			want: []string{"[]", "[1]", "[1,0]", "[0]", "[0,2]"},
		},
		{
			name: "pass",
			opts: WalkOptions{Pass: func(e Entry) bool { return len(e.Path) == 1 }},
			want: []string{"[]", "[0]", "[1]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paths(Nodes(root, tt.opts))
			if !equalStrings(got, tt.want) {
				t.Errorf("Nodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkStops(t *testing.T) {
	count := 0
	Walk(sampleRoot(), WalkOptions{}, func(Entry) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("visited %d entries, want 3", count)
	}
}

func TestTexts(t *testing.T) {
	got := paths(Texts(sampleRoot(), WalkOptions{}))
	want := []string{"[0,0]", "[0,1,0]", "[0,2]", "[1,0]"}
	if !equalStrings(got, want) {
		t.Errorf("Texts() = %v, want %v", got, want)
	}
}

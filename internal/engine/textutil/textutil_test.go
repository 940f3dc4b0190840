package textutil

import "testing"

func TestLenCountsUTF16Units(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"h\u00e9llo", 5},
		{"a😀b", 4},
	}
	for _, tt := range tests {
		if got := Len(tt.in); got != tt.want {
			t.Errorf("Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSlice(t *testing.T) {
	s := "a😀bc"
	if got := Slice(s, 1, 3); got != "😀" {
		t.Errorf("Slice(1,3) = %q", got)
	}
	if got := SliceFrom(s, 3); got != "bc" {
		t.Errorf("SliceFrom(3) = %q", got)
	}
	if got := SliceTo(s, 2); got != "a" {
		t.Errorf("SliceTo(2) inside a surrogate pair = %q, want %q", got, "a")
	}
	if got := SliceFrom("abc", 10); got != "" {
		t.Errorf("SliceFrom past end = %q", got)
	}
}

func TestInsertRemove(t *testing.T) {
	if got := Insert("Hello world", 5, " there"); got != "Hello there world" {
		t.Errorf("Insert() = %q", got)
	}
	if got := Remove("Hello there world", 5, 6); got != "Hello world" {
		t.Errorf("Remove() = %q", got)
	}
}

func TestCharacterDistance(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		reverse bool
		want    int
	}{
		{"ascii", "abc", false, 1},
		{"ascii reverse", "abc", true, 1},
		{"emoji", "😀x", false, 2},
		{"emoji reverse", "x😀", true, 2},
		{"combining mark", "e\u0301x", false, 2},
		{"flag", "🇯🇵", false, 4},
		{"empty", "", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CharacterDistance(tt.in, tt.reverse); got != tt.want {
				t.Errorf("CharacterDistance() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWordDistance(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		reverse bool
		want    int
	}{
		{"word", "hello world", false, 5},
		{"leading space", "  hello world", false, 7},
		{"reverse", "hello world", true, 5},
		{"reverse trailing punctuation", "hello world!", true, 6},
		{"apostrophe", "can't stop", false, 5},
		{"no word", "   ", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordDistance(tt.in, tt.reverse); got != tt.want {
				t.Errorf("WordDistance(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

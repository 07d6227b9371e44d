package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(10, 5)
	if s.Width() != 10 || s.Height() != 5 {
		t.Fatalf("size = %dx%d, expected 10x5", s.Width(), s.Height())
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("cell (%d,%d) = %q, expected space", x, y, s.Get(x, y))
			}
		}
	}
}

func TestScreenSetColored(t *testing.T) {
	s := NewScreen(5, 5)
	s.SetColored(2, 3, '●', ColorBrightCyan)

	c := s.GetCell(2, 3)
	if c.Rune != '●' || c.Color != ColorBrightCyan {
		t.Errorf("GetCell() = %+v", c)
	}

	// Out of bounds is ignored.
	s.Set(-1, 0, 'X')
	s.Set(5, 5, 'X')
	if s.Get(-1, 0) != ' ' {
		t.Error("out-of-bounds Get should return space")
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(3, 3)
	s.SetColored(1, 1, '#', ColorRed)
	s.Clear()
	if c := s.GetCell(1, 1); c.Rune != ' ' || c.Color != ColorDefault {
		t.Errorf("cell after Clear = %+v", c)
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 1)
	s.DrawText(2, 0, "Hi")
	if got := s.Row(0); got != "  Hi      " {
		t.Errorf("Row(0) = %q", got)
	}

	s.Clear()
	s.DrawTextCentered(0, "ab", ColorGreen)
	if got := s.Row(0); got != "    ab    " {
		t.Errorf("centered Row(0) = %q", got)
	}
	if s.GetCell(4, 0).Color != ColorGreen {
		t.Error("centered text should carry colour")
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawBox(NewRect(0, 0, 4, 3), ColorGray)

	expected := []string{
		"┌──┐",
		"│  │",
		"└──┘",
	}
	for y, row := range expected {
		if got := s.Row(y); got != row {
			t.Errorf("Row(%d) = %q, expected %q", y, got, row)
		}
	}
}

func TestScreenDrawLine(t *testing.T) {
	s := NewScreen(5, 5)
	s.DrawLine(0, 0, 4, 4, '\\', ColorWhite)
	for i := 0; i < 5; i++ {
		if s.Get(i, i) != '\\' {
			t.Errorf("diagonal cell %d not drawn", i)
		}
	}

	s.Clear()
	s.DrawLine(4, 2, 0, 2, '-', ColorWhite)
	if got := s.Row(2); got != "-----" {
		t.Errorf("horizontal line = %q", got)
	}
}

func TestScreenStringAndResize(t *testing.T) {
	s := NewScreen(2, 2)
	s.Set(0, 0, 'a')
	s.Set(1, 1, 'b')
	if got := s.String(); got != "a \n b" {
		t.Errorf("String() = %q", got)
	}

	s.Resize(3, 1)
	if s.Width() != 3 || s.Height() != 1 {
		t.Fatalf("size after Resize = %dx%d", s.Width(), s.Height())
	}
	if strings.TrimSpace(s.String()) != "" {
		t.Error("Resize should discard content")
	}
}

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/mapshot/core"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"tfrecord", FormatTFRecord},
		{"COCO", FormatCoco},
		{"Darknet", FormatDarknet},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q): expected %s, got %s (%v)", tc.in, tc.want, got, err)
		}
	}
	if _, err := ParseFormat("voc"); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

func TestNew_Layouts(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		format Format
		path   string
	}{
		{FormatTFRecord, "sweep.tfrecord"},
		{FormatCoco, "coco/annotations"},
		{FormatDarknet, "data/obj"},
	}
	for _, tc := range tests {
		t.Run(tc.format.String(), func(t *testing.T) {
			w, err := New(tc.format, dir, "sweep", quiet())
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer w.Finish()
			if _, err := os.Stat(filepath.Join(dir, tc.path)); err != nil {
				t.Errorf("Expected %s to exist: %v", tc.path, err)
			}
		})
	}

	if _, err := New(Format(9), dir, "x"); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

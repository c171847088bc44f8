package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		target  error
		matches bool
	}{
		{"parse matches parse", Parse("a.cs", errors.New("boom")), ErrParse, true},
		{"parse is not export", Parse("a.cs", errors.New("boom")), ErrExport, false},
		{"wrapped export", fmt.Errorf("writing: %w", Export("json", "out.json", os.ErrPermission)), ErrExport, true},
		{"cause still reachable", Export("json", "out.json", os.ErrPermission), os.ErrPermission, true},
		{"input", Input("read dir", "/nope", os.ErrNotExist), ErrInput, true},
		{"extraction", Extraction("rabbit.yaml", errors.New("panic")), ErrExtraction, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Export("dot", "out/dependency_map.dot", errors.New("disk full"))
	assert.Equal(t, "ExportError: export dot out/dependency_map.dot: disk full", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindParse, KindOf(fmt.Errorf("x: %w", Parse("a", nil))))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.True(t, KindParse.Recoverable())
	assert.False(t, KindInput.Recoverable())
}

package grid

import (
	"fmt"
	"strings"
)

// ShapeMismatch is returned by ParseString when rows or layers within a
// raw grid literal don't all share the same length.
type ShapeMismatch struct {
	Want, Got int
}

func (e ShapeMismatch) Error() string {
	return fmt.Sprintf("grid: shape mismatch: want %d, got %d", e.Want, e.Got)
}

// ParseString decodes a grid literal where '/' separates z-layers and ' '
// separates y-rows; every remaining byte is one x-cell, converted by fn.
// Every layer must have the same number of rows, and every row within a
// layer must have the same number of cells.
func ParseString[T any](raw string, fn func(byte) T) (Grid[T], error) {
	layers := strings.Split(raw, "/")
	rows := strings.Split(layers[0], " ")
	height := len(rows)
	width := len(rows[0])

	extents := Size{len(layers), height, width}
	g := New[T](extents)

	for z, layer := range layers {
		layerRows := strings.Split(layer, " ")
		if len(layerRows) != height {
			return Grid[T]{}, ShapeMismatch{Want: height, Got: len(layerRows)}
		}
		for y, row := range layerRows {
			if len(row) != width {
				return Grid[T]{}, ShapeMismatch{Want: width, Got: len(row)}
			}
			for x := 0; x < width; x++ {
				g.Set(Offset{z, y, x}, fn(row[x]))
			}
		}
	}

	return g, nil
}

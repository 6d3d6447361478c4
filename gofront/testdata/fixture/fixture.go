package fixture

import "unsafe"

type Point struct {
	X, Y int32
}

type List struct {
	Value int64
	Next  *List
}

var (
	Flag    bool
	Count   int
	Small   int8
	Mask    uint8
	Word    uintptr
	Ratio   float64
	Name    string
	Ids     [4]uint16
	Buf     []byte
	Origin  Point
	Head    *List
	Handler func(int) int
	Raw     unsafe.Pointer

	Skip   map[string]int
	Notify chan bool
)

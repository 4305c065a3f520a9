package grid

import (
	"errors"
	"fmt"
)

const (
	// DefaultBlockSize is the side length of a freshly created block.
	DefaultBlockSize = 24
	defaultColumns   = 4
	defaultRows      = 2
)

var (
	ErrEmptyLayout      = errors.New("layout has no blocks")
	ErrInvalidDirection = errors.New("invalid expansion direction")
	ErrBlockOutOfRange  = errors.New("block index out of range")
	ErrCellOutOfRange   = errors.New("grid cell outside block")
)

// Direction names the side a layout grows towards.
type Direction string

const (
	Left   Direction = "left"
	Right  Direction = "right"
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

// ParseDirection validates a raw direction.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(raw); d {
	case Left, Right, Top, Bottom:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
	}
}

// Block is a rectangle of the shared layout plane.
type Block struct {
	X      int `bson:"x" json:"x"`
	Y      int `bson:"y" json:"y"`
	Width  int `bson:"width" json:"width"`
	Height int `bson:"height" json:"height"`
}

// Rect is the bounding box of a block set, max edges exclusive of the next block.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// DefaultBlocks returns the starter template: 4 columns by 2 rows of 24×24 blocks.
func DefaultBlocks() []Block {
	blocks := make([]Block, 0, defaultColumns*defaultRows)
	for row := 0; row < defaultRows; row++ {
		for col := 0; col < defaultColumns; col++ {
			blocks = append(blocks, Block{
				X:      col * DefaultBlockSize,
				Y:      row * DefaultBlockSize,
				Width:  DefaultBlockSize,
				Height: DefaultBlockSize,
			})
		}
	}
	return blocks
}

// Bounds computes the bounding box of the blocks.
func Bounds(blocks []Block) (Rect, error) {
	if len(blocks) == 0 {
		return Rect{}, ErrEmptyLayout
	}

	r := Rect{
		MinX: blocks[0].X,
		MinY: blocks[0].Y,
		MaxX: blocks[0].X + blocks[0].Width,
		MaxY: blocks[0].Y + blocks[0].Height,
	}
	for _, b := range blocks[1:] {
		r.MinX = min(r.MinX, b.X)
		r.MinY = min(r.MinY, b.Y)
		r.MaxX = max(r.MaxX, b.X+b.Width)
		r.MaxY = max(r.MaxY, b.Y+b.Height)
	}
	return r, nil
}

// Expand appends a full column (left/right) or row (top/bottom) of blocks sized
// like the first block. When the new blocks would start at a negative coordinate
// every block is shifted by one block size so all origins stay >= 0.
// The input slice is not modified.
func Expand(blocks []Block, dir Direction) ([]Block, error) {
	bounds, err := Bounds(blocks)
	if err != nil {
		return nil, err
	}

	w, h := blocks[0].Width, blocks[0].Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("block size %dx%d: %w", w, h, ErrEmptyLayout)
	}

	out := make([]Block, len(blocks), len(blocks)+ceilDiv(max(bounds.MaxX-bounds.MinX, bounds.MaxY-bounds.MinY), min(w, h)))
	copy(out, blocks)

	switch dir {
	case Right, Left:
		x := bounds.MaxX
		if dir == Left {
			x = bounds.MinX - w
		}
		for y := bounds.MinY; y < bounds.MaxY; y += h {
			out = append(out, Block{X: x, Y: y, Width: w, Height: h})
		}
		if x < 0 {
			shift(out, w, 0)
		}
	case Bottom, Top:
		y := bounds.MaxY
		if dir == Top {
			y = bounds.MinY - h
		}
		for x := bounds.MinX; x < bounds.MaxX; x += w {
			out = append(out, Block{X: x, Y: y, Width: w, Height: h})
		}
		if y < 0 {
			shift(out, 0, h)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	return out, nil
}

// ValidCell checks that (x, y) addresses a cell of blocks[blockIndex]. Cells
// include the far edges, so a 24×24 block has coordinates 0..24 on each axis.
func ValidCell(blocks []Block, blockIndex, x, y int) error {
	if blockIndex < 0 || blockIndex >= len(blocks) {
		return fmt.Errorf("%w: %d of %d", ErrBlockOutOfRange, blockIndex, len(blocks))
	}
	b := blocks[blockIndex]
	if x < 0 || y < 0 || x > b.Width || y > b.Height {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrCellOutOfRange, x, y, b.Width, b.Height)
	}
	return nil
}

func shift(blocks []Block, dx, dy int) {
	for i := range blocks {
		blocks[i].X += dx
		blocks[i].Y += dy
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

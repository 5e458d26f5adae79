package model

const (
	// BoardSize is the dimension of a standard gomoku board
	BoardSize = 15
	// WinLength is the number of consecutive stones that wins
	WinLength = 5
)

// Stone is the content of a board cell
type Stone int

const (
	StoneEmpty Stone = 0
	StoneBlack Stone = 1
	StoneWhite Stone = 2
)

// Opponent returns the other player's stone
func (s Stone) Opponent() Stone {
	switch s {
	case StoneBlack:
		return StoneWhite
	case StoneWhite:
		return StoneBlack
	default:
		return StoneEmpty
	}
}

// IsPlayer returns true for black or white
func (s Stone) IsPlayer() bool {
	return s == StoneBlack || s == StoneWhite
}

// String returns the colour name of the stone
func (s Stone) String() string {
	switch s {
	case StoneBlack:
		return "black"
	case StoneWhite:
		return "white"
	default:
		return "empty"
	}
}

// ParseStone converts a colour name to a Stone
func ParseStone(color string) (Stone, error) {
	switch color {
	case "black":
		return StoneBlack, nil
	case "white":
		return StoneWhite, nil
	default:
		return StoneEmpty, ErrInvalidColor
	}
}

// Position identifies a cell on the board
type Position struct {
	X int `json:"x"` // 0-indexed, first axis
	Y int `json:"y"` // 0-indexed, second axis
}

// Board is a square grid of stones
type Board struct {
	Size  int
	Cells [][]Stone // Cells[x][y], 0 means empty
}

// NewBoard creates an empty board of the given size
func NewBoard(size int) *Board {
	cells := make([][]Stone, size)
	for i := range cells {
		cells[i] = make([]Stone, size)
	}
	return &Board{
		Size:  size,
		Cells: cells,
	}
}

// Get returns the stone at the given position, or StoneEmpty if out of range
func (b *Board) Get(pos Position) Stone {
	if !b.IsValidPosition(pos) {
		return StoneEmpty
	}
	return b.Cells[pos.X][pos.Y]
}

// Set places a stone without any rule checks
func (b *Board) Set(pos Position, stone Stone) {
	if b.IsValidPosition(pos) {
		b.Cells[pos.X][pos.Y] = stone
	}
}

// IsEmpty returns true if the cell at the given position is empty
func (b *Board) IsEmpty(pos Position) bool {
	return b.Get(pos) == StoneEmpty
}

// IsValidPosition returns true if the position is within bounds
func (b *Board) IsValidPosition(pos Position) bool {
	return pos.X >= 0 && pos.X < b.Size && pos.Y >= 0 && pos.Y < b.Size
}

// MakeMove places a stone on an empty in-range cell. Cells are never
// overwritten.
func (b *Board) MakeMove(pos Position, stone Stone) error {
	if !b.IsValidPosition(pos) {
		return ErrMoveOutOfRange
	}
	if !b.IsEmpty(pos) {
		return ErrCellOccupied
	}
	b.Cells[pos.X][pos.Y] = stone
	return nil
}

// lineDirections are the four axes a winning line can run along
var lineDirections = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

// CheckWinner scans every occupied cell and returns the stone that owns a
// line of at least WinLength, or StoneEmpty when nobody has won.
func (b *Board) CheckWinner() Stone {
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			stone := b.Cells[x][y]
			if stone == StoneEmpty {
				continue
			}
			for _, d := range lineDirections {
				if b.lineLength(x, y, d[0], d[1]) >= WinLength {
					return stone
				}
			}
		}
	}
	return StoneEmpty
}

// lineLength counts same-stone cells through (x, y) in both directions
// along (dx, dy)
func (b *Board) lineLength(x, y, dx, dy int) int {
	stone := b.Cells[x][y]
	count := 1
	for nx, ny := x+dx, y+dy; b.IsValidPosition(Position{nx, ny}) && b.Cells[nx][ny] == stone; nx, ny = nx+dx, ny+dy {
		count++
	}
	for nx, ny := x-dx, y-dy; b.IsValidPosition(Position{nx, ny}) && b.Cells[nx][ny] == stone; nx, ny = nx-dx, ny-dy {
		count++
	}
	return count
}

// IsFull returns true if all cells are filled
func (b *Board) IsFull() bool {
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			if b.Cells[x][y] == StoneEmpty {
				return false
			}
		}
	}
	return true
}

// StoneCount returns the number of occupied cells
func (b *Board) StoneCount() int {
	count := 0
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			if b.Cells[x][y] != StoneEmpty {
				count++
			}
		}
	}
	return count
}

// Area returns the number of cells on the board
func (b *Board) Area() int {
	return b.Size * b.Size
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	clone := NewBoard(b.Size)
	for x := range b.Cells {
		copy(clone.Cells[x], b.Cells[x])
	}
	return clone
}

// Rows returns the board as plain integers, the shape oracles are shown
func (b *Board) Rows() [][]int {
	rows := make([][]int, b.Size)
	for x := 0; x < b.Size; x++ {
		rows[x] = make([]int, b.Size)
		for y := 0; y < b.Size; y++ {
			rows[x][y] = int(b.Cells[x][y])
		}
	}
	return rows
}

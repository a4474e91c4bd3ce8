package engine

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Valid() bool {
	return c == White || c == Black
}

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the row direction pawns of this color advance in.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) backRow() int {
	if c == White {
		return 1
	}
	return boardSize
}

func (c Color) pawnRow() int {
	return c.backRow() + c.forward()
}

func (c Color) promotionRow() int {
	return c.Opponent().backRow()
}

// enPassantRow is the row a pawn of this color must stand on to capture en passant.
func (c Color) enPassantRow() int {
	return c.Opponent().pawnRow() + 2*c.Opponent().forward()
}

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// PromotionTypes lists the pieces a pawn may become on the last rank.
var PromotionTypes = []PieceType{Queen, Rook, Bishop, Knight}

func (t PieceType) Valid() bool {
	switch t {
	case King, Queen, Rook, Bishop, Knight, Pawn:
		return true
	}
	return false
}

func (t PieceType) notation() string {
	switch t {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

func NewPiece(t PieceType, c Color) *Piece {
	return &Piece{Type: t, Color: c}
}

// symbol is the FEN letter for the piece: upper case for White.
func (p *Piece) symbol() byte {
	s := "p"
	if p.Type != Pawn {
		s = p.Type.notation()
	}
	b := s[0]
	if p.Color == White {
		return b &^ 0x20
	}
	return b | 0x20
}

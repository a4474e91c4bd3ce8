package engine

// castlingMoves returns the castling candidates for an unmoved king on from.
// The king may not castle out of, through, or into check.
func (g *Game) castlingMoves(from Position, king *Piece) []Move {
	if king.HasMoved || inCheck(g.board, king.Color) {
		return nil
	}
	var moves []Move
	for _, rookCol := range []int{boardSize, 1} {
		step := 1
		if rookCol < from.Col {
			step = -1
		}
		if abs(rookCol-from.Col) < 3 {
			continue
		}
		rook := g.board.Piece(Position{Row: from.Row, Col: rookCol})
		if rook == nil || rook.Type != Rook || rook.Color != king.Color || rook.HasMoved {
			continue
		}
		if !g.pathClear(from, rookCol, step) || g.transitAttacked(from, step, king) {
			continue
		}
		moves = append(moves, Move{Start: from, End: from.offset(0, 2*step)})
	}
	return moves
}

func (g *Game) pathClear(from Position, rookCol, step int) bool {
	for col := from.Col + step; col != rookCol; col += step {
		if g.board.Piece(Position{Row: from.Row, Col: col}) != nil {
			return false
		}
	}
	return true
}

// transitAttacked probes the two squares the king crosses, the second being
// its destination, by standing the king on each in turn on a copy of the board.
func (g *Game) transitAttacked(from Position, step int, king *Piece) bool {
	for i := 1; i <= 2; i++ {
		trial := *g.board
		trial.squares[from.Row][from.Col] = nil
		to := from.offset(0, i*step)
		trial.squares[to.Row][to.Col] = king
		if inCheck(&trial, king.Color) {
			return true
		}
	}
	return false
}

// castle moves the king two columns and the rook it castles with to the
// square the king crossed.
func (g *Game) castle(m Move, king *Piece) *CastleRookMove {
	step := 1
	rookFrom := Position{Row: m.Start.Row, Col: boardSize}
	if m.End.Col < m.Start.Col {
		step = -1
		rookFrom.Col = 1
	}
	rookTo := m.Start.offset(0, step)
	rook := g.board.Piece(rookFrom)

	g.board.mustAdd(m.Start, nil)
	g.board.mustAdd(rookFrom, nil)
	king.HasMoved = true
	rook.HasMoved = true
	g.board.mustAdd(m.End, king)
	g.board.mustAdd(rookTo, rook)
	return &CastleRookMove{From: rookFrom, To: rookTo}
}

// enPassantMove returns the en passant capture available to the pawn on from.
func (g *Game) enPassantMove(from Position, pawn *Piece) (Move, bool) {
	if !g.enPassantEligible || pawn.Color != g.turn {
		return Move{}, false
	}
	if from.Row != pawn.Color.enPassantRow() || abs(from.Col-g.enPassantColumn) != 1 {
		return Move{}, false
	}
	victim := g.board.Piece(Position{Row: from.Row, Col: g.enPassantColumn})
	if victim == nil || victim.Type != Pawn || victim.Color == pawn.Color {
		return Move{}, false
	}
	return Move{Start: from, End: Position{Row: from.Row + pawn.Color.forward(), Col: g.enPassantColumn}}, true
}

func (g *Game) isEnPassantCapture(piece *Piece, m Move) bool {
	return g.enPassantEligible &&
		piece.Type == Pawn &&
		m.Start.Col != m.End.Col &&
		m.End.Col == g.enPassantColumn &&
		m.Start.Row == piece.Color.enPassantRow() &&
		g.board.Piece(m.End) == nil
}

// captureEnPassant moves the pawn diagonally and removes the pawn it passed.
func (g *Game) captureEnPassant(m Move, pawn *Piece) *Piece {
	victimPos := Position{Row: m.Start.Row, Col: m.End.Col}
	victim := g.board.Piece(victimPos)
	g.board.mustAdd(victimPos, nil)
	g.board.mustAdd(m.Start, nil)
	pawn.HasMoved = true
	g.board.mustAdd(m.End, pawn)
	return victim
}

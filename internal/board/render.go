package board

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/notnil/chess"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Board palette, matching the common lichess board colors.
var (
	lightSquare     = color.RGBA{R: 0xF0, G: 0xD9, B: 0xB5, A: 0xFF}
	darkSquare      = color.RGBA{R: 0xB5, G: 0x88, B: 0x63, A: 0xFF}
	highlightSquare = color.RGBA{R: 0xCD, G: 0xD2, B: 0x6A, A: 0xFF}
	whitePieceColor = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	blackPieceColor = color.RGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0xFF}
	pieceShadow     = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
)

var pieceLetters = map[chess.PieceType]string{
	chess.King:   "K",
	chess.Queen:  "Q",
	chess.Rook:   "R",
	chess.Bishop: "B",
	chess.Knight: "N",
	chess.Pawn:   "P",
}

// Renderer rasterizes board states at a fixed square size. It is safe to
// share between frames of one job but not between goroutines (font faces are
// not concurrency-safe), so each worker builds its own.
type Renderer struct {
	squarePx int
	face     font.Face
}

// NewRenderer builds a renderer with the given square edge length in pixels.
// The full board is squarePx*8 on each side.
func NewRenderer(squarePx int) (*Renderer, error) {
	if squarePx < 16 {
		return nil, fmt.Errorf("square size %dpx too small to render pieces", squarePx)
	}

	parsed, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse piece font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(squarePx) * 0.72,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build piece font face: %w", err)
	}

	return &Renderer{squarePx: squarePx, face: face}, nil
}

// Render draws the full board with white at the bottom. When lastMove is
// non-nil its origin and destination squares are highlighted.
func (r *Renderer) Render(b *chess.Board, lastMove *chess.Move) *image.RGBA {
	edge := r.squarePx * 8
	img := image.NewRGBA(image.Rect(0, 0, edge, edge))

	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := chess.Square(rank*8 + file)

			fill := lightSquare
			if (rank+file)%2 == 0 {
				fill = darkSquare
			}
			if lastMove != nil && (sq == lastMove.S1() || sq == lastMove.S2()) {
				fill = highlightSquare
			}

			x := file * r.squarePx
			y := (7 - rank) * r.squarePx
			rect := image.Rect(x, y, x+r.squarePx, y+r.squarePx)
			draw.Draw(img, rect, image.NewUniform(fill), image.Point{}, draw.Src)

			if piece := b.Piece(sq); piece != chess.NoPiece {
				r.drawPiece(img, piece, x, y)
			}
		}
	}

	return img
}

func (r *Renderer) drawPiece(img *image.RGBA, piece chess.Piece, x, y int) {
	letter := pieceLetters[piece.Type()]

	main := whitePieceColor
	shadow := blackPieceColor
	if piece.Color() == chess.Black {
		main = blackPieceColor
		shadow = pieceShadow
	}

	adv := font.MeasureString(r.face, letter)
	metrics := r.face.Metrics()

	dotX := fixed.I(x) + (fixed.I(r.squarePx)-adv)/2
	dotY := fixed.I(y) + (fixed.I(r.squarePx)+metrics.Ascent-metrics.Descent)/2

	offset := fixed.I(r.squarePx / 32)
	if offset == 0 {
		offset = fixed.I(1)
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(shadow),
		Face: r.face,
		Dot:  fixed.Point26_6{X: dotX + offset, Y: dotY + offset},
	}
	d.DrawString(letter)

	d.Src = image.NewUniform(main)
	d.Dot = fixed.Point26_6{X: dotX, Y: dotY}
	d.DrawString(letter)
}

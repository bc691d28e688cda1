package core

import (
	"github.com/dkeye/Board/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultCodeLength = 6
	codeAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// largest multiple of len(codeAlphabet) that fits a byte
	codeByteCeil = 252
)

// CodeGenerator knows nothing about which codes are in use.
type CodeGenerator interface {
	Generate() domain.RoomCode
}

type CodeFunc func() domain.RoomCode

func (f CodeFunc) Generate() domain.RoomCode { return f() }

// RandomCodes draws upper-case base-36 codes from v4 UUID randomness.
type RandomCodes struct {
	Length int
}

func (g RandomCodes) Generate() domain.RoomCode {
	n := g.Length
	if n <= 0 {
		n = DefaultCodeLength
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		id := uuid.New()
		for i, b := range id {
			// bytes 6 and 8 carry version and variant bits
			if i == 6 || i == 8 || b >= codeByteCeil {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return domain.RoomCode(out)
}

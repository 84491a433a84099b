package brackets

import (
	"errors"
	"math/rand"
)

var (
	ErrInvalidSize   = errors.New("tournament size must be 4 or 8")
	ErrOddFieldSize  = errors.New("cannot pair an odd number of players")
	ErrFieldTooSmall = errors.New("not enough players to pair (minimum 2)")
)

// Pairing is one single-elimination slot: two players, one survivor.
type Pairing struct {
	Player1ID int
	Player2ID int
}

// ValidSize reports whether n is a supported bracket size.
func ValidSize(n int) bool {
	return n == 4 || n == 8
}

// NumRounds is the number of rounds a full bracket of the given size plays.
func NumRounds(size int) int {
	rounds := 0
	for size > 1 {
		size /= 2
		rounds++
	}
	return rounds
}

// PairRound shuffles the players uniformly and pairs them sequentially:
// (p[0],p[1]), (p[2],p[3]), ... The same policy applies to the initial
// seeding and to every advancement round, so the bracket deliberately does
// not preserve seed order.
func PairRound(playerIDs []int) ([]Pairing, error) {
	n := len(playerIDs)
	if n < 2 {
		return nil, ErrFieldTooSmall
	}
	if n%2 != 0 {
		return nil, ErrOddFieldSize
	}

	shuffled := make([]int, n)
	copy(shuffled, playerIDs)
	rand.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairings := make([]Pairing, 0, n/2)
	for i := 0; i < n; i += 2 {
		pairings = append(pairings, Pairing{
			Player1ID: shuffled[i],
			Player2ID: shuffled[i+1],
		})
	}
	return pairings, nil
}

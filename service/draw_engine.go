package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"santa/models"
)

// MinParticipants is the smallest group for which a derangement exists
const MinParticipants = 2

// maxDerangementAttempts bounds the shuffle-and-reject loop. A random
// permutation has no fixed point with probability close to 1/e, so the
// expected number of attempts is below 3.
const maxDerangementAttempts = 10000

// errDerangementExhausted is returned when every attempt produced a fixed point
var errDerangementExhausted = errors.New("failed to find a derangement")

// intnFunc returns a uniform integer in [0, n)
type intnFunc func(n int) (int, error)

type drawEngine struct {
	intn intnFunc
}

// NewDrawEngine creates a draw engine backed by crypto/rand
func NewDrawEngine() DrawEngine {
	return &drawEngine{intn: cryptoIntn}
}

func cryptoIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Draw pairs every participant with exactly one recipient who is not
// themselves. Every derangement of the input is equally likely.
func (e *drawEngine) Draw(users []*models.User) (*models.Assignment, error) {
	if len(users) < MinParticipants {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrInsufficientParticipants, len(users), MinParticipants)
	}

	seen := make(map[int64]struct{}, len(users))
	for _, u := range users {
		if _, ok := seen[u.DiscordID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateParticipant, u.DiscordID)
		}
		seen[u.DiscordID] = struct{}{}
	}

	perm, err := e.derangement(len(users))
	if err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		DrawID:   uuid.NewString(),
		Pairings: make([]models.Pairing, len(users)),
	}
	for i, giver := range users {
		recipient := users[perm[i]]
		assignment.Pairings[i] = models.Pairing{
			Giver:     giver,
			Recipient: recipient,
			Message:   FormatPairingMessage(recipient),
		}
	}

	return assignment, nil
}

// derangement returns a permutation of [0, n) without fixed points
func (e *drawEngine) derangement(n int) ([]int, error) {
	perm := make([]int, n)
	for attempt := 0; attempt < maxDerangementAttempts; attempt++ {
		for i := range perm {
			perm[i] = i
		}

		// Fisher-Yates
		for i := n - 1; i > 0; i-- {
			j, err := e.intn(i + 1)
			if err != nil {
				return nil, fmt.Errorf("failed to read random source: %w", err)
			}
			perm[i], perm[j] = perm[j], perm[i]
		}

		if !hasFixedPoint(perm) {
			return perm, nil
		}
	}
	return nil, errDerangementExhausted
}

func hasFixedPoint(perm []int) bool {
	for i, v := range perm {
		if i == v {
			return true
		}
	}
	return false
}

// FormatPairingMessage renders the notification a giver receives about their recipient
func FormatPairingMessage(recipient *models.User) string {
	return fmt.Sprintf("🎅 You are giving a gift to %s (%s)! Their wish: %s",
		recipient.Name, recipient.Handle, recipient.Wish)
}

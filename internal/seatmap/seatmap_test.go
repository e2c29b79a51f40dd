package seatmap

import (
	"testing"

	"busline/internal/domain"
	"busline/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(seats []models.Seat) []string {
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.Code)
	}
	return out
}

func countByPosition(seats []models.Seat) map[domain.SeatPosition]int {
	out := map[domain.SeatPosition]int{}
	for _, s := range seats {
		out[s.Position]++
	}
	return out
}

func TestBuildCapacityInvariant(t *testing.T) {
	for capacity := 4; capacity <= 60; capacity++ {
		for _, hasToilet := range []bool{false, true} {
			seats := Build(capacity, hasToilet)

			seen := map[string]bool{}
			for _, s := range seats {
				require.Falsef(t, seen[s.Code], "duplicate seat %s (capacity=%d toilet=%v)", s.Code, capacity, hasToilet)
				seen[s.Code] = true
			}

			byPos := countByPosition(seats)
			assert.Equalf(t, capacity, byPos[domain.SeatRegular]+byPos[domain.SeatBack],
				"capacity=%d toilet=%v", capacity, hasToilet)
			wantToilet := 0
			if hasToilet {
				wantToilet = 1
			}
			assert.Equalf(t, wantToilet, byPos[domain.SeatToilet],
				"capacity=%d toilet=%v", capacity, hasToilet)
		}
	}
}

func TestBuildTwentySeatsNoToilet(t *testing.T) {
	seats := Build(20, false)

	require.Len(t, seats, 20)
	assert.Equal(t, []string{
		"1A", "1B", "1C", "1D",
		"2A", "2B", "2C", "2D",
		"3A", "3B", "3C", "3D",
		"4A", "4B", "4C", "4D",
		"B1", "B2", "B3", "B4",
	}, codes(seats))
}

func TestBuildFortySeatsWithToilet(t *testing.T) {
	seats := Build(40, true)

	// 35 regular + 5 back + 1 toilet slot
	require.Len(t, seats, 41)
	assert.Equal(t, []string{"1A", "1B", "1C", "WC"}, codes(seats[:4]))

	byPos := countByPosition(seats)
	assert.Equal(t, 35, byPos[domain.SeatRegular])
	assert.Equal(t, 5, byPos[domain.SeatBack])
	assert.Equal(t, 1, byPos[domain.SeatToilet])

	last := seats[len(seats)-1]
	assert.Equal(t, "B5", last.Code)
	assert.Equal(t, 10, last.Row)
}

func TestBuildDeterministic(t *testing.T) {
	a := Build(33, true)
	b := Build(33, true)
	assert.Equal(t, a, b)
}

func TestBuildRejectsNonPositive(t *testing.T) {
	assert.Nil(t, Build(0, false))
	assert.Nil(t, Build(-3, true))
}

func TestBackRowSize(t *testing.T) {
	assert.Equal(t, 4, BackRowSize(24))
	assert.Equal(t, 5, BackRowSize(25))
}

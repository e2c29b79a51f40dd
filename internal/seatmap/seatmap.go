// Package seatmap builds the deterministic seat layout for a bus. The same
// (capacity, hasToilet) input always yields the same seat count, names and
// ordering; nothing here touches random state or the clock.
package seatmap

import (
	"fmt"
	"strconv"

	"busline/internal/domain"
	"busline/internal/domain/models"
)

var regularColumns = []string{"A", "B", "C", "D"}

// BackRowSize follows the fleet convention: small buses carry a 4-seat back
// bench, larger ones 5.
func BackRowSize(capacity int) int {
	if capacity < 25 {
		return 4
	}
	return 5
}

// Build returns the ordered seat list for a bus. Capacity counts sellable
// seats (REGULAR + BACK); the toilet, when present, occupies the row-1
// column-D slot as an extra non-sellable position, which pushes one regular
// seat into an additional row. Callers validate capacity > 0 at the
// boundary; Build returns nil for non-positive input.
func Build(capacity int, hasToilet bool) []models.Seat {
	if capacity <= 0 {
		return nil
	}

	backRow := BackRowSize(capacity)
	remaining := capacity - backRow
	if remaining < 0 {
		remaining = 0
	}

	seats := make([]models.Seat, 0, capacity+1)
	row := 1

	if hasToilet {
		for _, col := range regularColumns[:3] {
			if remaining == 0 {
				break
			}
			seats = append(seats, regularSeat(row, col))
			remaining--
		}
		seats = append(seats, models.Seat{
			Code:     "WC",
			Row:      row,
			Column:   "D",
			Position: domain.SeatToilet,
		})
		row++
	}

	for remaining > 0 {
		for _, col := range regularColumns {
			if remaining == 0 {
				break
			}
			seats = append(seats, regularSeat(row, col))
			remaining--
		}
		row++
	}

	for i := 1; i <= backRow; i++ {
		seats = append(seats, models.Seat{
			Code:     fmt.Sprintf("B%d", i),
			Row:      row,
			Column:   strconv.Itoa(i),
			Position: domain.SeatBack,
		})
	}

	return seats
}

func regularSeat(row int, col string) models.Seat {
	return models.Seat{
		Code:     fmt.Sprintf("%d%s", row, col),
		Row:      row,
		Column:   col,
		Position: domain.SeatRegular,
	}
}

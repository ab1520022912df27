package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/iliyamo/seat-booking/internal/api"
)

var (
	freeColor   = color.New(color.FgGreen)
	takenColor  = color.New(color.FgRed)
	mineColor   = color.New(color.FgCyan, color.Bold)
	legendColor = color.New(color.Faint)
)

// renderSeatMap draws one table row per seat row.  Seats in mine are
// marked as the caller's own.
func renderSeatMap(w io.Writer, seats []api.Seat, mine map[uint64]bool) {
	rows := map[uint32][]api.Seat{}
	var order []uint32
	width := 0
	for _, s := range seats {
		if _, ok := rows[s.RowNumber]; !ok {
			order = append(order, s.RowNumber)
		}
		rows[s.RowNumber] = append(rows[s.RowNumber], s)
		if n := len(rows[s.RowNumber]); n > width {
			width = n
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"Row"}
	for i := 1; i <= width; i++ {
		header = append(header, i)
	}
	t.AppendHeader(header)

	free := 0
	for _, r := range order {
		line := table.Row{r}
		rs := rows[r]
		sort.Slice(rs, func(i, j int) bool { return rs[i].SeatNumber < rs[j].SeatNumber })
		for _, s := range rs {
			if s.Available() {
				free++
			}
			line = append(line, seatCell(s, mine[s.ID]))
		}
		t.AppendRow(line)
	}
	t.Render()

	fmt.Fprintf(w, "%d of %d seats available  %s\n", free, len(seats),
		legendColor.Sprintf("(%s free, %s taken, %s yours)", freeColor.Sprint("o"), takenColor.Sprint("x"), mineColor.Sprint("#")))
}

func seatCell(s api.Seat, mine bool) string {
	label := fmt.Sprintf("%d", s.ID)
	switch {
	case mine:
		return mineColor.Sprint("#" + label)
	case s.Available():
		return freeColor.Sprint("o" + label)
	default:
		return takenColor.Sprint("x" + label)
	}
}

// renderSeatList prints seats as a flat table.
func renderSeatList(w io.Writer, seats []api.Seat) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Seat", "Row", "Number", "Status"})
	for _, s := range seats {
		t.AppendRow(table.Row{s.ID, s.RowNumber, s.SeatNumber, statusText(s)})
	}
	t.Render()
}

func statusText(s api.Seat) string {
	if s.Available() {
		return freeColor.Sprint(s.Status)
	}
	return takenColor.Sprint(s.Status)
}

func seatLabels(seats []api.Seat) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprintf("%d (row %d, seat %d)", s.ID, s.RowNumber, s.SeatNumber)
	}
	return strings.Join(parts, ", ")
}

func idSet(seats []api.Seat) map[uint64]bool {
	out := make(map[uint64]bool, len(seats))
	for _, s := range seats {
		out[s.ID] = true
	}
	return out
}

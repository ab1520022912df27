// Command seatctl is the terminal client of the seat booking API.
package main

import "github.com/iliyamo/seat-booking/internal/cli"

func main() {
	cli.Execute()
}

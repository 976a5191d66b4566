package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
)

const emptyCell = "-"

var listHeader = []string{"TYPE", "NAME", "PRICE", "QTY", "DESCRIPTION", "BAR CODE", "VALID UNTIL", "PICKUP", "STATUS"}

// writeRows renders rows as an aligned table. Pickup times are shown in loc,
// the zone the session reads its clock in, whatever zone the store returned.
func writeRows(w io.Writer, rows []warehouse.Row, loc *time.Location) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No products in the warehouse")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeLine(tw, listHeader)
	for _, row := range rows {
		writeLine(tw, rowCells(row, loc))
	}
	return tw.Flush()
}

func rowCells(row warehouse.Row, loc *time.Location) []string {
	price := emptyCell
	if row.Price.Valid {
		price = row.Price.Decimal.StringFixed(2)
	}
	validUntil := emptyCell
	if !row.ValidUntil.IsZero() {
		validUntil = catalog.FormatDate(row.ValidUntil)
	}
	pickup := emptyCell
	status := "in stock"
	if row.Reserved {
		pickup = row.PickupAt.In(loc).Format(PickupLayout)
		status = "reserved"
	}
	return []string{
		row.Kind.Label(),
		row.Name,
		price,
		fmt.Sprint(row.Quantity),
		orEmpty(row.Description),
		row.BarCode,
		validUntil,
		pickup,
		status,
	}
}

func writeLine(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}

func orEmpty(value string) string {
	if value == "" {
		return emptyCell
	}
	return value
}

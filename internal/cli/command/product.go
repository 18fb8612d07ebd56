package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
)

// ProductCommand returns the product command group.
func ProductCommand() *cli.Command {
	return &cli.Command{
		Name:  "product",
		Usage: "Inventory products",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List products",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Filter by name",
					},
				},
				Action: productList,
			},
		},
	}
}

// productRows renders a product list.
type productRows []api.Product

func (p productRows) Table(wide bool) *output.Table {
	headers := []string{"NAME", "QUANTITY", "PRICE", "DESCRIPTION"}
	if wide {
		headers = append([]string{"ID"}, headers...)
	}
	t := output.NewTable(headers...)
	for _, prod := range p {
		row := []string{
			prod.Name,
			strconv.FormatFloat(prod.Quantity, 'f', -1, 64),
			formatPrice(prod.Price),
			prod.Description,
		}
		if wide {
			row = append([]string{prod.ID}, row...)
		}
		t.AddRow(row...)
	}
	return t
}

func formatPrice(price *float64) string {
	if price == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *price)
}

func productList(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	products, err := svc.ListProducts(c.Context, c.String("search"))
	if err != nil {
		return err
	}

	if len(products) == 0 && tableOutput(c) {
		fmt.Fprintln(c.App.Writer, "No products found")
		return nil
	}
	if products == nil {
		products = []api.Product{}
	}
	if err := render(c, productRows(products)); err != nil {
		return err
	}
	if tableOutput(c) {
		fmt.Fprintf(c.App.Writer, "\nTotal: %d products\n", len(products))
	}
	return nil
}

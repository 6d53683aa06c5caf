package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/tour-booking/internal/domain"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}
	cmd.AddCommand(c.cartAddCmd(), c.cartRemoveCmd(), c.cartSetCmd(), c.cartListCmd(), c.cartClearCmd())
	return cmd
}

func (c *cli) cartAddCmd() *cobra.Command {
	var (
		line     domain.CartLine
		location int64
	)
	cmd := &cobra.Command{
		Use:   "add TOUR_ID",
		Short: "Add travellers for a tour, fetching its prices and stock first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTourID(args[0])
			if err != nil {
				return err
			}
			line.TourID = id
			if cmd.Flags().Changed("from") {
				line.LocationFrom = &location
			}

			detail, err := c.state.Gateway.CartDetail(cmd.Context(), []domain.CartLine{line})
			if err != nil {
				return describe(err)
			}
			if len(detail.Cart) != 1 || unknownTour(detail.Cart[0]) {
				return fmt.Errorf("tour %d not found", id)
			}
			priced := detail.Cart[0]
			priced.QuantityAdult, priced.QuantityChildren, priced.QuantityBaby =
				line.QuantityAdult, line.QuantityChildren, line.QuantityBaby
			line = priced

			stored, err := c.state.Cart.Add(cmd.Context(), line)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d adult, %d children, %d baby\n",
				displayName(stored), stored.QuantityAdult, stored.QuantityChildren, stored.QuantityBaby)
			return nil
		},
	}
	cmd.Flags().IntVar(&line.QuantityAdult, "adult", 0, "adults to add")
	cmd.Flags().IntVar(&line.QuantityChildren, "children", 0, "children to add")
	cmd.Flags().IntVar(&line.QuantityBaby, "baby", 0, "babies to add")
	cmd.Flags().Int64Var(&location, "from", 0, "departure location id")
	return cmd
}

func (c *cli) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm TOUR_ID",
		Aliases: []string{"remove"},
		Short:   "Remove a tour from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTourID(args[0])
			if err != nil {
				return err
			}
			removed, err := c.state.Cart.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("tour %d is not in the cart", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed tour %d\n", id)
			return nil
		},
	}
}

func (c *cli) cartSetCmd() *cobra.Command {
	var adult, children, baby int
	cmd := &cobra.Command{
		Use:   "set TOUR_ID",
		Short: "Set quantities of a tour already in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTourID(args[0])
			if err != nil {
				return err
			}
			var patch domain.QuantityPatch
			if cmd.Flags().Changed("adult") {
				patch.Adult = &adult
			}
			if cmd.Flags().Changed("children") {
				patch.Children = &children
			}
			if cmd.Flags().Changed("baby") {
				patch.Baby = &baby
			}
			updated, err := c.state.Cart.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("tour %d is not in the cart", id)
			}
			return printCart(cmd.OutOrStdout(), c.state.Cart.Lines(), c.state.Cart.SubTotal())
		},
	}
	cmd.Flags().IntVar(&adult, "adult", 0, "adults")
	cmd.Flags().IntVar(&children, "children", 0, "children")
	cmd.Flags().IntVar(&baby, "baby", 0, "babies")
	return cmd
}

func (c *cli) cartListCmd() *cobra.Command {
	var (
		code  string
		check bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the cart and its totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := printCart(out, c.state.Cart.Lines(), c.state.Cart.SubTotal()); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d tours, %d travellers\n", c.state.Cart.TourCount(), c.state.Cart.PersonCount())

			if check {
				v, err := c.state.Cart.Validate(cmd.Context())
				if err != nil {
					return describe(err)
				}
				for _, issue := range v.Issues {
					fmt.Fprintln(out, "!", issue)
				}
				if v.SubTotal != c.state.Cart.SubTotal() {
					fmt.Fprintf(out, "current prices give a subtotal of %s\n", v.SubTotal)
				}
			}

			if code != "" {
				applied, err := c.state.Coupon.Apply(cmd.Context(), code)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(out, "coupon %s: -%s\n", applied.Coupon.Code, applied.DiscountAmount)
				fmt.Fprintf(out, "total %s\n", c.state.Coupon.FinalTotal())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "coupon", "", "preview a coupon code against the cart")
	cmd.Flags().BoolVar(&check, "check", false, "check prices and stock with the backend")
	return cmd
}

func (c *cli) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.state.Cart.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}
}

func printCart(w io.Writer, lines []domain.CartLine, subTotal domain.Money) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOUR\tNAME\tADULT\tCHILDREN\tBABY\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			l.TourID, displayName(l), l.QuantityAdult, l.QuantityChildren, l.QuantityBaby, l.Total())
	}
	fmt.Fprintf(tw, "\t\t\t\tsubtotal\t%s\n", subTotal)
	return tw.Flush()
}

func displayName(l domain.CartLine) string {
	if l.Name != "" {
		return l.Name
	}
	return "tour " + strconv.FormatInt(l.TourID, 10)
}

func parseTourID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tour id %q", arg)
	}
	return id, nil
}

// unknownTour reports whether the backend priced a line it has no catalog entry for.
func unknownTour(l domain.CartLine) bool {
	for _, stock := range []*int{l.StockAdult, l.StockChildren, l.StockBaby} {
		if stock != nil && *stock > 0 {
			return false
		}
	}
	return l.Name == ""
}

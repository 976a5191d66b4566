package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/warehouse-backend/internal/catalog"
	"github.com/angelmondragon/warehouse-backend/internal/warehouse"
	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// PickupLayout is the local wall-clock format accepted by reserve --pickup.
const PickupLayout = "2006-01-02 15:04"

func (a *app) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a food, electronic or clothing entry",
	}
	cmd.AddCommand(
		a.addKindCmd(enums.ProductKindFood),
		a.addKindCmd(enums.ProductKindElectronic),
		a.addKindCmd(enums.ProductKindClothing),
	)
	return cmd
}

func (a *app) addKindCmd(kind enums.ProductKind) *cobra.Command {
	var (
		name, price, description string
		quantity                 int
		validUntil               string
		size, color, material    string
	)

	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf("Add a %s entry", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedPrice, err := parsePrice(price)
			if err != nil {
				return err
			}
			spec := catalog.Spec{
				Kind:        kind,
				Name:        name,
				Price:       parsedPrice,
				Quantity:    quantity,
				Description: description,
				Size:        size,
				Color:       color,
				Material:    material,
			}
			switch kind {
			case enums.ProductKindFood:
				if spec.ExpirationDate, err = parseDateFlag("expiration-date", validUntil); err != nil {
					return err
				}
			case enums.ProductKindElectronic:
				if spec.WarrantyDate, err = parseDateFlag("warranty-date", validUntil); err != nil {
					return err
				}
			}

			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				barCode, err := svc.AddEntry(ctx, now, spec)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added %s %q with bar code %s\n", kind, spec.Name, barCode)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "product name")
	flags.StringVar(&price, "price", "", "unit price, e.g. 4.99")
	flags.IntVar(&quantity, "quantity", 0, "units in stock")
	flags.StringVar(&description, "description", "", "free-form description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	switch kind {
	case enums.ProductKindFood:
		flags.StringVar(&validUntil, "expiration-date", "", "expiration date (YYYY-MM-DD)")
		_ = cmd.MarkFlagRequired("expiration-date")
	case enums.ProductKindElectronic:
		flags.StringVar(&validUntil, "warranty-date", "", "warranty end date (YYYY-MM-DD)")
		_ = cmd.MarkFlagRequired("warranty-date")
	case enums.ProductKindClothing:
		flags.StringVar(&size, "size", "", "size label, e.g. M")
		flags.StringVar(&color, "color", "", "color")
		flags.StringVar(&material, "material", catalog.DefaultMaterial, "material")
		_ = cmd.MarkFlagRequired("size")
		_ = cmd.MarkFlagRequired("color")
	}
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		price       string
		addQuantity int
	)
	cmd := &cobra.Command{
		Use:   "update <bar-code>",
		Short: "Change the price and/or add stock to an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var newPrice *decimal.Decimal
			if cmd.Flags().Changed("price") {
				parsed, err := parsePrice(price)
				if err != nil {
					return err
				}
				newPrice = &parsed
			}
			var added *int
			if cmd.Flags().Changed("add") {
				added = &addQuantity
			}

			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				entry, err := svc.UpdatePriceAndStock(ctx, now, args[0], newPrice, added)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Updated %s: price %s, quantity %d\n", entry.Name, entry.Price.StringFixed(2), entry.Quantity)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&price, "price", "", "new unit price")
	cmd.Flags().IntVar(&addQuantity, "add", 0, "units to add to stock")
	return cmd
}

func (a *app) removeExpiredCmd() *cobra.Command {
	return a.sweepCmd("remove-expired", "Remove food past its expiration date", "expired food",
		func(ctx context.Context, svc *warehouse.Service, now, asOf time.Time) ([]catalog.Entry, error) {
			return svc.RemoveExpiredFood(ctx, now, asOf)
		})
}

func (a *app) removeOutOfWarrantyCmd() *cobra.Command {
	return a.sweepCmd("remove-out-of-warranty", "Remove electronics whose warranty has ended", "electronics out of warranty",
		func(ctx context.Context, svc *warehouse.Service, now, asOf time.Time) ([]catalog.Entry, error) {
			return svc.RemoveOutOfWarrantyElectronics(ctx, now, asOf)
		})
}

func (a *app) sweepCmd(use, short, label string, run func(ctx context.Context, svc *warehouse.Service, now, asOf time.Time) ([]catalog.Entry, error)) *cobra.Command {
	var asOfFlag string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var asOf time.Time
			if asOfFlag != "" {
				parsed, err := parseDateFlag("as-of", asOfFlag)
				if err != nil {
					return err
				}
				asOf = parsed
			}

			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				if asOf.IsZero() {
					asOf = now
				}
				removed, err := run(ctx, svc, now, asOf)
				if err != nil {
					return err
				}
				if len(removed) == 0 {
					fmt.Fprintf(a.out, "No %s to remove\n", label)
					return nil
				}
				fmt.Fprintf(a.out, "Removed %d %s:\n", len(removed), label)
				for i := range removed {
					fmt.Fprintf(a.out, "  %s  %s\n", removed[i].BarCode, removed[i].String())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bar-code>",
		Short: "Delete an entry by bar code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				result, err := svc.DeleteByBarCode(ctx, now, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s\n", result.Entry.String())
				if result.ReservedQuantity > 0 {
					fmt.Fprintf(a.err, "warning: %d reserved unit(s) still refer to %s\n", result.ReservedQuantity, result.Entry.BarCode)
				}
				return nil
			})
		},
	}
}

func (a *app) discountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discount <bar-code> <percent>",
		Short: "Discount an entry by a whole percentage of its base price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := parseInt("percent", args[1])
			if err != nil {
				return err
			}
			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				result, err := svc.ApplyDiscount(ctx, now, args[0], percent)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Price changed from %s to %s\n", result.Old.StringFixed(2), result.New.StringFixed(2))
				return nil
			})
		},
	}
}

func (a *app) reserveCmd() *cobra.Command {
	var pickup string
	cmd := &cobra.Command{
		Use:   "reserve <name> <quantity>",
		Short: "Reserve units of a product for later pickup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseInt("quantity", args[1])
			if err != nil {
				return err
			}
			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				pickupAt, err := parsePickup(pickup, now.Location())
				if err != nil {
					return err
				}
				reservation, err := svc.Reserve(ctx, now, args[0], qty, pickupAt)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Reserved %d x %s for pickup at %s (reservation %s)\n",
					reservation.Quantity, reservation.ProductName, reservation.PickupAt.In(now.Location()).Format(PickupLayout), reservation.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pickup, "pickup", "", "pickup time ("+PickupLayout+" or RFC3339)")
	_ = cmd.MarkFlagRequired("pickup")
	return cmd
}

func (a *app) buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <name> <quantity>",
		Short: "Buy units of a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseInt("quantity", args[1])
			if err != nil {
				return err
			}
			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, now time.Time) error {
				total, err := svc.Buy(ctx, now, args[0], qty)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Bought %d x %s, total %s\n", qty, args[0], total.StringFixed(2))
				return nil
			})
		},
	}
}

func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation and return its units to stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd.Context(), func(ctx context.Context, svc *warehouse.Service, _ time.Time) error {
				reservation, err := svc.CancelReservation(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Canceled reservation of %d x %s\n", reservation.Quantity, reservation.ProductName)
				return nil
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stock and reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *enums.ProductKind
			if kindFlag != "" {
				kind, err := enums.ParseProductKind(kindFlag)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid --type")
				}
				filter = &kind
			}
			return a.session(cmd.Context(), func(_ context.Context, svc *warehouse.Service, now time.Time) error {
				return writeRows(a.out, svc.ListEntries(filter), now.Location())
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "type", "", "only list one kind (food, electronic, clothing)")
	return cmd
}

func parsePrice(value string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid price %q", value)
	}
	return price, nil
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s %q", field, value)
	}
	return n, nil
}

func parseDateFlag(field, value string) (time.Time, error) {
	date, err := catalog.ParseDate(value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid --"+field)
	}
	return date, nil
}

// parsePickup accepts local wall-clock time or an RFC3339 instant.
func parsePickup(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(PickupLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid pickup time %q", value).
		WithDetails(map[string]any{"expected": PickupLayout})
}

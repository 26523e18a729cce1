package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/refund"
	"orderdesk/internal/service"

	"github.com/google/uuid"
)

var errAborted = errors.New("refund cancelled")

// selectionFlags are shared by quote and refund.
type selectionFlags struct {
	mode    string
	items   string
	fee     bool
	restock bool
	yes     bool
}

func parseSelection(name string, args []string, withSubmit bool) (uuid.UUID, selectionFlags, error) {
	var sf selectionFlags
	if len(args) == 0 {
		return uuid.Nil, sf, errUsage
	}
	orderID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, sf, fmt.Errorf("invalid order ID %q: %w", args[0], err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&sf.mode, "mode", "", "entire-order, partial or remaining")
	fs.StringVar(&sf.items, "items", "", "comma separated item IDs (partial)")
	fs.BoolVar(&sf.fee, "fee", false, "include the delivery fee (partial)")
	if withSubmit {
		fs.BoolVar(&sf.restock, "restock", false, "return refunded items to stock")
		fs.BoolVar(&sf.yes, "yes", false, "skip the confirmation prompt")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return uuid.Nil, sf, err
	}
	return orderID, sf, nil
}

// parseItemIDs parses a comma-separated ID list. Repeats are dropped so each
// item is toggled once.
func parseItemIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid item ID %q: %w", part, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (sf selectionFlags) selection() (refund.Selection, error) {
	mode, err := refund.ParseMode(sf.mode)
	if err != nil {
		return refund.Selection{}, err
	}
	ids, err := parseItemIDs(sf.items)
	if err != nil {
		return refund.Selection{}, err
	}
	return refund.Selection{Mode: mode, ItemIDs: ids, IncludeDeliveryFee: sf.fee}, nil
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	orderID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid order ID %q: %w", args[0], err)
	}
	view, err := a.client.GetOrderView(ctx, orderID)
	if err != nil {
		return err
	}
	printView(a.out, view)
	return nil
}

func (a *app) quote(ctx context.Context, args []string) error {
	orderID, sf, err := parseSelection("quote", args, false)
	if err != nil {
		return err
	}
	sel, err := sf.selection()
	if err != nil {
		return err
	}
	quote, err := a.client.QuoteRefund(ctx, orderID, sel)
	if err != nil {
		return err
	}
	if !quote.Valid {
		fmt.Fprintf(a.out, "Not refundable: %s (%s)\n", quote.Reason, quote.Code)
		return nil
	}
	fmt.Fprintf(a.out, "Refund amount: %s\n", quote.Formatted)
	return nil
}

// refund drives a refund.Controller through select, confirm and submit.
func (a *app) refund(ctx context.Context, args []string) error {
	orderID, sf, err := parseSelection("refund", args, true)
	if err != nil {
		return err
	}
	sel, err := sf.selection()
	if err != nil {
		return err
	}
	if a.actor == nil {
		return errors.New("refunds require -actor-id")
	}

	order, err := a.client.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	ctrl := refund.NewController(order, a.client, a.client, a.actor, a.logger)
	opts := ctrl.Options()
	if opts.ManualReconciliation {
		return model.ErrManualReconciliation
	}
	if !opts.Allowed(sel.Mode) {
		return fmt.Errorf("refund mode %q is not available for this order", sel.Mode)
	}

	ctrl.Dispatch(refund.SetMode{Mode: sel.Mode})
	for _, id := range sel.ItemIDs {
		ctrl.Dispatch(refund.ToggleItem{ItemID: id})
	}
	if sel.IncludeDeliveryFee {
		ctrl.Dispatch(refund.ToggleDeliveryFee{})
	}

	amount, err := ctrl.Quote()
	if err != nil {
		return err
	}

	ctrl.Dispatch(refund.ShowConfirm{})
	if sf.restock {
		ctrl.Dispatch(refund.ToggleReturnToStock{})
	}

	if !sf.yes {
		ok, err := a.confirm(fmt.Sprintf("Refund %s on order %s?", money.Format(amount, order.Currency), order.ID))
		if err != nil {
			return err
		}
		if !ok {
			ctrl.Dispatch(refund.Reset{})
			return errAborted
		}
	}

	res, err := ctrl.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	if res.Refund != nil {
		fmt.Fprintf(a.out, "Refund ID: %s\n", res.Refund.ID)
	}
	fmt.Fprintf(a.out, "Order status: %s\n", ctrl.Order().Status)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	orderID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid order ID %q: %w", args[0], err)
	}
	target, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}
	view, err := a.client.TransitionStatus(ctx, orderID, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s is now %s\n", view.Order.ID, view.Order.Status)
	return nil
}

func (a *app) ready(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	orderID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid order ID %q: %w", args[0], err)
	}
	itemID, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid item ID %q: %w", args[1], err)
	}
	ready := true
	if len(args) == 3 {
		if ready, err = strconv.ParseBool(args[2]); err != nil {
			return fmt.Errorf("invalid readiness %q: %w", args[2], err)
		}
	}
	view, err := a.client.SetItemReady(ctx, orderID, itemID, ready)
	if err != nil {
		return err
	}
	printView(a.out, view)
	return nil
}

func (a *app) confirm(prompt string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func printView(w io.Writer, view *service.OrderView) {
	o := view.Order
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Order\t%s\n", o.ID)
	fmt.Fprintf(tw, "Status\t%s\n", o.Status)
	fmt.Fprintf(tw, "Delivery\t%s\n", o.DeliveryMethod)
	fmt.Fprintf(tw, "Subtotal\t%s\n", money.Format(view.Summary.Subtotal, o.Currency))
	fmt.Fprintf(tw, "Discount\t%s\n", money.Format(view.Summary.Discount, o.Currency))
	fmt.Fprintf(tw, "Delivery fee\t%s\n", money.Format(view.Summary.DeliveryFee, o.Currency))
	fmt.Fprintf(tw, "Paid\t%s\n", money.Format(view.Summary.AmountPaid, o.Currency))
	fmt.Fprintf(tw, "Refunded\t%s\n", money.Format(view.Summary.AmountRefunded, o.Currency))
	fmt.Fprintf(tw, "Refundable\t%s\n", money.Format(view.Summary.NetAmount, o.Currency))
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tQTY\tTOTAL\tREADY\tREFUNDED")
	for _, item := range o.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\t%t\n",
			item.ID, item.Name, item.Quantity, money.Format(item.Total(), o.Currency), item.IsReady, item.IsRefunded)
	}
	tw.Flush()

	switch {
	case view.Refund.ManualReconciliation:
		fmt.Fprintln(w, "\nPayment on delivery: reconcile refunds manually.")
	case len(view.Refund.Modes) > 0:
		modes := make([]string, len(view.Refund.Modes))
		for i, m := range view.Refund.Modes {
			modes[i] = string(m)
		}
		fmt.Fprintf(w, "\nRefund modes: %s\n", strings.Join(modes, ", "))
	}
}

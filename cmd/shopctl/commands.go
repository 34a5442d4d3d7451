package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/config"
	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/tracking"
)

type dialFunc func(baseURL string) (shopapi.API, error)

func dialShop(logger zerolog.Logger) dialFunc {
	return func(baseURL string) (shopapi.API, error) {
		return shopapi.NewClient(shopapi.Config{
			BaseURL:     baseURL,
			Timeout:     10 * time.Second,
			MaxAttempts: 2,
			BaseBackoff: 200 * time.Millisecond,
			Logger:      logger,
		})
	}
}

func newCommand(out io.Writer, logger zerolog.Logger, dial dialFunc) *cli.Command {
	connect := func(c *cli.Command) (shopapi.API, error) {
		return dial(c.String("base-url"))
	}
	formatter := func(c *cli.Command) (money.Formatter, error) {
		rate, err := money.ParseRate(c.String("rate"))
		if err != nil {
			return money.Formatter{}, err
		}
		return money.New(c.String("symbol"), rate), nil
	}

	return &cli.Command{
		Name:   "shopctl",
		Usage:  "inspect and drive the shop API",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Value: "http://localhost:3000", Usage: "shop API base URL", Sources: cli.EnvVars("SHOP_API_BASE_URL")},
			&cli.StringFlag{Name: "symbol", Value: money.Default.Symbol, Usage: "currency symbol", Sources: cli.EnvVars("MONEY_SYMBOL")},
			&cli.StringFlag{Name: "rate", Value: money.Default.Rate.String(), Usage: "exchange rate applied to cents/100", Sources: cli.EnvVars("MONEY_EXCHANGE_RATE")},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of tables"},
		},
		Commands: []*cli.Command{
			{
				Name:  "products",
				Usage: "List the product catalog",
				Action: func(ctx context.Context, c *cli.Command) error {
					api, err := connect(c)
					if err != nil {
						return err
					}
					m, err := formatter(c)
					if err != nil {
						return err
					}
					products, err := api.Products(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out, products)
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tPRICE\tRATING")
					for _, p := range products {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f (%d)\n", p.ID, p.Name, m.Format(p.PriceCents), p.Rating.Stars, p.Rating.Count)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "cart",
				Usage: "Show the cart with each line's delivery date",
				Action: func(ctx context.Context, c *cli.Command) error {
					sess, presenter, err := loadCheckout(ctx, c, connect, formatter, logger)
					if err != nil {
						return err
					}
					view := presenter.View(ptr(sess.Snapshot()))
					if c.Bool("json") {
						return printJSON(out, view.Lines)
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tDELIVERY")
					for _, line := range view.Lines {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", line.ProductID, line.Name, line.Quantity, line.Price, line.DeliveryDate)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "checkout",
				Usage: "Show the checkout view including the payment summary",
				Action: func(ctx context.Context, c *cli.Command) error {
					sess, presenter, err := loadCheckout(ctx, c, connect, formatter, logger)
					if err != nil {
						return err
					}
					view := presenter.View(ptr(sess.Snapshot()))
					if c.Bool("json") {
						return printJSON(out, view)
					}
					printCheckout(out, view)
					return nil
				},
			},
			{
				Name:      "select-delivery",
				Usage:     "Choose the delivery option of a cart line",
				ArgsUsage: "<productId> <deliveryOptionId>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return cli.Exit("usage: shopctl select-delivery <productId> <deliveryOptionId>", 2)
					}
					sess, presenter, err := loadCheckout(ctx, c, connect, formatter, logger)
					if err != nil {
						return err
					}
					productID := shopapi.ParseID(c.Args().Get(0))
					if err := sess.OnSelectDeliveryOption(ctx, productID, shopapi.ParseID(c.Args().Get(1))); err != nil {
						return err
					}
					state := sess.Snapshot()
					fmt.Fprintf(out, "%s: %s\n", productID, presenter.ResolveSelectedOption(&state, productID))
					return nil
				},
			},
			{
				Name:      "track",
				Usage:     "Show the shipment progress of an ordered product",
				ArgsUsage: "<orderId> <productId>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return cli.Exit("usage: shopctl track <orderId> <productId>", 2)
					}
					api, err := connect(c)
					if err != nil {
						return err
					}
					svc := &tracking.Service{API: api, Location: time.Local, Now: time.Now}
					v, err := svc.Track(ctx, shopapi.ParseID(c.Args().Get(0)), shopapi.ParseID(c.Args().Get(1)))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out, v)
					}
					if !v.Found {
						fmt.Fprintln(out, v.EmptyMessage)
						return nil
					}
					fmt.Fprintf(out, "%s x%d\nArriving on %s\n", v.ProductName, v.Quantity, v.ArrivingOn)
					for _, l := range v.Labels {
						marker := " "
						if l.Current {
							marker = "*"
						}
						fmt.Fprintf(out, "%s %s\n", marker, l.Name)
					}
					fmt.Fprintf(out, "progress %d%%\n", v.Progress)
					return nil
				},
			},
			{
				Name:  "keys",
				Usage: "Generate SESSION_AUTH_KEY and SESSION_ENC_KEY for .env",
				Action: func(_ context.Context, _ *cli.Command) error {
					keys, err := config.GenerateSessionKeys()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "SESSION_AUTH_KEY=%s\nSESSION_ENC_KEY=%s\n", keys.AuthKey, keys.EncKey)
					return nil
				},
			},
		},
	}
}

func loadCheckout(ctx context.Context, c *cli.Command, connect func(*cli.Command) (shopapi.API, error), formatter func(*cli.Command) (money.Formatter, error), logger zerolog.Logger) (*checkout.Session, checkout.Presenter, error) {
	api, err := connect(c)
	if err != nil {
		return nil, checkout.Presenter{}, err
	}
	m, err := formatter(c)
	if err != nil {
		return nil, checkout.Presenter{}, err
	}
	sess := checkout.NewSession(api, logger)
	if err := sess.Load(ctx); err != nil {
		return nil, checkout.Presenter{}, err
	}
	return sess, checkout.NewPresenter(m, time.Local), nil
}

func printCheckout(out io.Writer, v checkout.View) {
	fmt.Fprintf(out, "Checkout (%s)\n\n", itemsLabel(v.ItemCount))
	for _, line := range v.Lines {
		fmt.Fprintf(out, "%s  %s  x%d  %s\n  %s\n", line.ProductID, line.Name, line.Quantity, line.Price, line.DeliveryDate)
		for _, opt := range line.Options {
			mark := "( )"
			if opt.Checked {
				mark = "(o)"
			}
			fmt.Fprintf(out, "    %s %s  %s  [%s]\n", mark, opt.Date, opt.Price, opt.ID)
		}
	}
	if v.Summary == nil {
		return
	}
	s := v.Summary
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Items (%d):\t%s\t\n", s.TotalItems, s.Items)
	fmt.Fprintf(tw, "Shipping & handling:\t%s\t\n", s.Shipping)
	fmt.Fprintf(tw, "Total before tax:\t%s\t\n", s.TotalBeforeTax)
	fmt.Fprintf(tw, "Estimated tax (10%%):\t%s\t\n", s.Tax)
	fmt.Fprintf(tw, "Order total:\t%s\t\n", s.OrderTotal)
	_ = tw.Flush()
}

func itemsLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ptr[T any](v T) *T { return &v }

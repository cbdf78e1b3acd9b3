package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"ecommerce-be/internal/config"
	"ecommerce-be/internal/db"
	"ecommerce-be/internal/ledger"
	"ecommerce-be/internal/logger"
	"ecommerce-be/internal/metrics"
	"ecommerce-be/internal/payment"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serviceFactory opens the ledger and returns a release func for whatever it
// acquired.
type serviceFactory func() (ledger.Service, func(), error)

func main() {
	if err := newRootCmd(openLedger, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func openLedger() (ledger.Service, func(), error) {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)

	conn, err := db.NewDatabase(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	svc := ledger.NewService(
		ledger.NewRepository(conn),
		cfg,
		ledger.WithMetrics(metrics.NewLedger(prometheus.NewRegistry())),
	)

	release := func() {
		closeQuietly(conn)
		logger.Sync()
	}
	return svc, release, nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logger.L().Warn("close database", zap.Error(err))
	}
}

func newRootCmd(open serviceFactory, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Order fulfillment ledger operations",
		SilenceUsage:  true,
	}
	root.SetOut(out)

	root.AddCommand(
		addItemCmd(open),
		removeItemCmd(open),
		recomputeCmd(open),
		trackingNumberCmd(open),
		transactionIDCmd(open),
		shipCmd(open),
		payCmd(open),
	)
	return root
}

// withLedger runs fn against a freshly opened ledger under a new request id
// and prints its result as JSON.
func withLedger(cmd *cobra.Command, open serviceFactory, fn func(ctx context.Context, svc ledger.Service) (any, error)) error {
	svc, release, err := open()
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}

	ctx := logger.WithRequestID(cmd.Context(), uuid.NewString())
	result, err := fn(ctx, svc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseID(raw, name string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(n), nil
}

func addItemCmd(open serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "add-item ORDER_ID PRODUCT_ID QUANTITY",
		Short: "Add a line item to an order, reserving product stock",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			productID, err := parseID(args[1], "product id")
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				return svc.AddLineItem(ctx, orderID, productID, quantity)
			})
		},
	}
}

func removeItemCmd(open serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-item LINE_ITEM_ID",
		Short: "Remove a line item and restore its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "line item id")
			if err != nil {
				return err
			}
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				if err := svc.RemoveLineItem(ctx, id); err != nil {
					return nil, err
				}
				return map[string]any{"removed": id}, nil
			})
		},
	}
}

func recomputeCmd(open serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute ORDER_ID",
		Short: "Recompute and store an order total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				total, err := svc.RecomputeTotal(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"order_id": id, "total": total.StringFixed(2)}, nil
			})
		},
	}
}

func trackingNumberCmd(open serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "tracking-number",
		Short: "Draw an unused shipment tracking number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				tn, err := svc.GenerateTrackingNumber(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]string{"tracking_number": tn}, nil
			})
		},
	}
}

func transactionIDCmd(open serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "transaction-id",
		Short: "Draw an unused payment transaction id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				id, err := svc.GenerateTransactionID(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]string{"transaction_id": id}, nil
			})
		},
	}
}

func shipCmd(open serviceFactory) *cobra.Command {
	var addressRaw string
	cmd := &cobra.Command{
		Use:   "ship ORDER_ID --address ADDRESS_ID",
		Short: "Create the shipment for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			addressID, err := parseID(addressRaw, "address id")
			if err != nil {
				return err
			}
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				return svc.CreateShipment(ctx, orderID, addressID)
			})
		},
	}
	cmd.Flags().StringVar(&addressRaw, "address", "", "shipping address id")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func payCmd(open serviceFactory) *cobra.Command {
	var methodRaw string
	cmd := &cobra.Command{
		Use:   "pay ORDER_ID",
		Short: "Create the payment record for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			method, err := payment.ParseMethod(methodRaw)
			if err != nil {
				return err
			}
			return withLedger(cmd, open, func(ctx context.Context, svc ledger.Service) (any, error) {
				return svc.CreatePayment(ctx, orderID, method)
			})
		},
	}
	cmd.Flags().StringVar(&methodRaw, "method", string(payment.MethodPix), "payment method: Pix or \"Credit Card\"")
	return cmd
}

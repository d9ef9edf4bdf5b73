// marketctl is a small terminal client for the HangArt marketplace API:
// sign in, list orders, pay for an order, and manage refund requests. It
// exists to exercise the client library end to end; UI screens wire the
// same components.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnaud-devs/hangart-sub000/config"
	"github.com/arnaud-devs/hangart-sub000/domain"
	"github.com/arnaud-devs/hangart-sub000/gateway"
	"github.com/arnaud-devs/hangart-sub000/logger"
	"github.com/arnaud-devs/hangart-sub000/order"
	"github.com/arnaud-devs/hangart-sub000/payment"
	"github.com/arnaud-devs/hangart-sub000/refund"
	"github.com/arnaud-devs/hangart-sub000/session"
	"github.com/arnaud-devs/hangart-sub000/transport"
)

const usage = `usage: marketctl <command> [flags]

commands:
  login    sign in and persist the session
  logout   sign out and clear the session
  whoami   show the signed-in user
  orders   list your orders
  pay      pay for an order
  refund   create or list refund requests
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "marketctl:", err)
		os.Exit(1)
	}
}

// app bundles the wired client components behind the subcommands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   session.Store
	manager *session.Manager
	orders  *order.Client
	payment *payment.Coordinator
	refunds *refund.Coordinator
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("marketctl", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd := os.Args[1]; cmd {
	case "login":
		return a.login(ctx, os.Args[2:])
	case "logout":
		a.manager.SignOut(ctx)
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "orders":
		return a.listOrders(ctx, os.Args[2:])
	case "pay":
		return a.pay(ctx, os.Args[2:])
	case "refund":
		return a.refund(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tcfg := transport.DefaultConfig()
	tcfg.Timeout = cfg.HTTPTimeout
	client := transport.New(tcfg)
	breaker := transport.NewBreakerClient(client, transport.DefaultBreakerConfig("hangart-api"), log)

	creds := session.NewCredentials(store, log)
	gw := gateway.New(cfg.APIBaseURL, breaker, creds, log,
		gateway.WithUserAgent(cfg.UserAgent),
		gateway.WithAuthExpiredHandler(func() {
			fmt.Fprintln(os.Stderr, "session expired, run: marketctl login")
		}),
	)

	manager := session.NewManager(gw, store, log)
	payCfg := payment.Config{
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		manager: manager,
		orders:  order.NewClient(gw, log),
		payment: payment.NewCoordinator(gw, log, payCfg),
		refunds: refund.NewCoordinator(gw, log),
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, error) {
	switch cfg.SessionBackend {
	case "file":
		return session.NewFileStore(cfg.SessionFile)
	case "redis":
		return session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "memory":
		return session.NewMemoryStore(), nil
	case "none":
		return session.NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func (a *app) close() {
	if closer, ok := a.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("close session store", slog.String("error", err.Error()))
		}
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	user, err := a.manager.SignIn(ctx, session.SignInInput{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		return err
	}

	fmt.Printf("signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.manager.Restore(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("not signed in")
		return nil
	}
	return printJSON(user)
}

func (a *app) listOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	status := fs.String("status", "", "filter by order status")
	_ = fs.Parse(args)

	list, err := a.orders.MyOrders(ctx, order.ListFilter{Status: *status})
	if err != nil {
		return err
	}

	fmt.Printf("%d order(s)\n", list.TotalCount)
	for _, o := range list.Items {
		fmt.Printf("  %-12s %-16s %10d %s\n", o.ID, o.Status, o.TotalAmount, o.Currency)
	}
	return nil
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	orderID := fs.String("order", "", "order id to pay")
	method := fs.String("method", domain.PaymentMethodMobileMoney, "card, paypal or mobile_money")
	phone := fs.String("phone", "", "mobile money number")
	message := fs.String("message", "", "text shown on the payer's handset")
	_ = fs.Parse(args)

	if *orderID == "" {
		return fmt.Errorf("-order is required")
	}

	target, err := a.orders.Get(ctx, *orderID)
	if err != nil {
		return err
	}

	result, err := a.payment.Pay(ctx, target, payment.Request{
		Method:       *method,
		PhoneNumber:  *phone,
		PayerMessage: *message,
	})
	if err != nil && result == nil {
		return err
	}

	switch result.State {
	case payment.StateSucceeded:
		fmt.Println("payment successful")
	case payment.StateRedirected:
		fmt.Println("approve the payment at:", result.RedirectURL)
	case payment.StateFailed:
		fmt.Println("payment declined:", result.Message)
	case payment.StateStillPending:
		fmt.Println("payment still pending; check the order later")
	}
	return nil
}

func (a *app) refund(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refund", flag.ExitOnError)
	orderID := fs.String("order", "", "order id to refund")
	reason := fs.String("reason", "", "damaged, wrong_item, not_as_described, changed_mind or other")
	description := fs.String("description", "", "what happened")
	list := fs.Bool("list", false, "list refund requests instead of creating one")
	_ = fs.Parse(args)

	if *list {
		requests, err := a.refunds.List(ctx, refund.ListFilter{OrderID: *orderID})
		if err != nil {
			return err
		}
		fmt.Printf("%d request(s)\n", requests.TotalCount)
		for _, r := range requests.Items {
			fmt.Printf("  %-12s %-10s %s\n", r.ID, r.Status, r.Reason)
		}
		return nil
	}

	if *orderID == "" {
		return fmt.Errorf("-order is required")
	}

	target, err := a.orders.Get(ctx, *orderID)
	if err != nil {
		return err
	}

	request, err := a.refunds.Create(ctx, refund.CreateInput{
		Order:       target,
		Reason:      *reason,
		Description: *description,
	})
	if err != nil {
		return err
	}

	fmt.Printf("refund request %s created (%s)\n", request.ID, request.Status)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

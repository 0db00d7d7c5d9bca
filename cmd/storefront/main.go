// Command storefront is a terminal front end for the shop. Its state (cart,
// pending order, accounts) lives in a local SQLite profile, so separate runs
// behave like one browser session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/retisha256/ecommerce/internal/logger"
	"github.com/retisha256/ecommerce/internal/storefront/account"
	"github.com/retisha256/ecommerce/internal/storefront/admin"
	"github.com/retisha256/ecommerce/internal/storefront/api"
	"github.com/retisha256/ecommerce/internal/storefront/cart"
	"github.com/retisha256/ecommerce/internal/storefront/catalog"
	"github.com/retisha256/ecommerce/internal/storefront/checkout"
	"github.com/retisha256/ecommerce/internal/storefront/newsletter"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

const usage = `usage: storefront [-api url] [-profile file] <command> [args]

commands:
  products [-search q] [-html]
  cart add|remove|inc|dec -id ID
  cart show|clear
  admin add -name N -category C -price P -image FILE [-description D]
  admin list
  checkout -first F -last L -email E -phone P -address A -city C -payment mtn|airtel -agree
  confirm [-order ID]
  subscribe -email E
  signup -first F -last L -email E -phone P -password X -confirm X
  login -email E -password X
  logout
`

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type app struct {
	log      *slog.Logger
	store    storage.Store
	client   *api.Client
	notifier notify.Notifier
	cart     *cart.Manager
}

func main() {
	fs := flag.NewFlagSet("storefront", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	apiURL := fs.String("api", getEnv("STOREFRONT_API", api.DefaultBaseURL), "backend API base URL")
	profile := fs.String("profile", getEnv("STOREFRONT_PROFILE", "storefront.db"), "local profile database")
	logLevel := fs.String("log-level", getEnv("LOG_LEVEL", "warn"), "log level")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	log := logger.NewWithWriter(os.Stderr, *logLevel)

	store, err := storage.OpenSQLite(*profile, storage.WithLogger(log))
	if err != nil {
		log.Error("failed to open profile", "path", *profile, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	notifier := &notify.Writer{W: os.Stdout}
	a := &app{
		log:      log,
		store:    store,
		client:   api.NewClient(*apiURL),
		notifier: notifier,
		cart:     cart.NewManager(store, cart.WithNotifier(notifier), cart.WithLogger(log)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		store.Close()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.products(ctx, args)
	case "cart":
		return a.cartCmd(ctx, args)
	case "admin":
		return a.adminCmd(ctx, args)
	case "checkout":
		return a.checkout(ctx, args)
	case "confirm":
		return a.confirm(ctx, args)
	case "subscribe":
		return a.subscribe(ctx, args)
	case "signup", "login", "logout":
		return a.accountCmd(cmd, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) catalog() *catalog.Catalog {
	return catalog.New(a.client, a.store, a.log)
}

func (a *app) checkoutFlow() *checkout.Checkout {
	return checkout.New(a.store, a.cart, a.client,
		checkout.WithNotifier(a.notifier),
		checkout.WithLogger(a.log),
	)
}

func (a *app) admin() *admin.Admin {
	return admin.New(a.store, a.client, a.notifier, a.log)
}

func (a *app) accounts() *account.Accounts {
	return account.New(a.store,
		account.WithNotifier(a.notifier),
		account.WithLogger(a.log),
		account.WithCart(a.cart),
	)
}

func (a *app) newsletter() *newsletter.Newsletter {
	remote := newsletter.SubscriberFunc(func(ctx context.Context, email string) error {
		_, err := a.client.Subscribe(ctx, email)
		return err
	})
	return newsletter.New(a.store, remote, a.notifier, a.log)
}

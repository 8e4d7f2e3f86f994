package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"veloshop-client/config"
	"veloshop-client/internal/domain"
	kvstore "veloshop-client/internal/infrastructure/kv"
	"veloshop-client/internal/repository/remote"
	"veloshop-client/internal/session"
	"veloshop-client/internal/usecase"
	"veloshop-client/pkg/cache"
	"veloshop-client/pkg/logger"
	"veloshop-client/pkg/utils"
)

// sessionStorageKey holds the persisted session between CLI invocations.
const sessionStorageKey = "session"

type storedSession struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// app is the wired engine for one CLI invocation.
type app struct {
	cfg       *config.Config
	store     *kvstore.SQLiteStore
	session   *session.Provider
	cart      *usecase.CartUsecase
	favorites *usecase.FavoritesUsecase
}

func newApp() (*app, error) {
	cfg := config.LoadConfig()
	logger.Init(cfg.Env, cfg.LogLevel)

	store, err := kvstore.NewSQLiteStore(cfg.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	sess := session.NewProvider(cfg.JWTSecret)
	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, cfg.RateLimitPerSec, cfg.RateLimitBurst, sess.Token)

	cartUC := usecase.NewCartUsecase(sess, remote.NewCartGateway(client), store, cfg.MaxCartQuantity)
	favUC := usecase.NewFavoritesUsecase(
		sess,
		remote.NewFavoritesGateway(client),
		cache.NewMemory(cfg.FavoritesCheckTTL, 2*cfg.FavoritesCheckTTL),
		cfg.FavoritesCheckTTL,
	)

	// Cart first: the guest cart must merge before favorites load.
	sess.Subscribe(cartUC)
	sess.Subscribe(favUC)

	return &app{
		cfg:       cfg,
		store:     store,
		session:   sess,
		cart:      cartUC,
		favorites: favUC,
	}, nil
}

// bootstrap restores a persisted session (re-running any interrupted guest
// cart merge) and loads initial state. A session that no longer resolves to
// remote mode is dropped so the guest cart still loads from local storage.
func (a *app) bootstrap(ctx context.Context) {
	raw, ok, err := a.store.Get(sessionStorageKey)
	if err == nil && ok {
		var saved storedSession
		switch {
		case json.Unmarshal([]byte(raw), &saved) != nil:
			logger.Warn().Msg("discarding corrupt session blob")
			_ = a.store.Remove(sessionStorageKey)
		case saved.Token == "":
			logger.Warn().Msg("discarding session blob without a token")
			_ = a.store.Remove(sessionStorageKey)
		default:
			a.session.SetSession(ctx, saved.User, saved.Token)
			if a.session.Mode() == session.ModeRemote {
				return
			}
			logger.Warn().Msg("discarding expired session, continuing anonymously")
			a.session.Clear()
			_ = a.store.Remove(sessionStorageKey)
		}
	}
	a.cart.Init(ctx)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close local store")
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var a *app

	cmd := &cobra.Command{
		Use:           "veloshop",
		Short:         "Veloshop storefront client",
		Long:          "Command-line client for the Veloshop storefront: cart, favorites and session management.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			if err != nil {
				return err
			}
			a.bootstrap(cmd.Context())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	cmd.AddCommand(newLoginCommand(&a))
	cmd.AddCommand(newLogoutCommand(&a))
	cmd.AddCommand(newCartCommand(&a))
	cmd.AddCommand(newFavoritesCommand(&a))

	return cmd
}

func newLoginCommand(a **app) *cobra.Command {
	var userJSON string

	cmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Install a session token and merge the guest cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]

			var user *domain.User
			if userJSON != "" {
				user = &domain.User{}
				if err := json.Unmarshal([]byte(userJSON), user); err != nil {
					return fmt.Errorf("invalid --user JSON: %w", err)
				}
			} else {
				var err error
				user, err = session.UserFromToken(token)
				if err != nil {
					return fmt.Errorf("token carries no usable identity, pass --user: %w", err)
				}
			}

			(*a).session.SetSession(cmd.Context(), user, token)
			if !(*a).session.IsAuthenticated() {
				(*a).session.Clear()
				return fmt.Errorf("token rejected: expired or malformed")
			}

			saved, err := json.Marshal(storedSession{User: user, Token: token})
			if err != nil {
				return err
			}
			if err := (*a).store.Set(sessionStorageKey, string(saved)); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in, guest cart merged.")
			return nil
		},
	}

	cmd.Flags().StringVar(&userJSON, "user", "", `user record as JSON, e.g. '{"id":"u1","email":"a@b.c"}'`)
	return cmd
}

func newLogoutCommand(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the session; the server-side cart and favorites are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			(*a).session.Clear()
			if err := (*a).store.Remove(sessionStorageKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newCartCommand(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	var name, slug, image, price, salePrice string
	addCmd := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				quantity = q
			}

			if slug == "" && name != "" {
				slug = utils.GenerateSlug(name)
			}
			product := domain.Product{ID: args[0], Name: name, Slug: slug, Image: image}
			if price != "" {
				p, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("invalid price %q", price)
				}
				product.Price = p
			}
			if salePrice != "" {
				sp, err := decimal.NewFromString(salePrice)
				if err != nil {
					return fmt.Errorf("invalid sale price %q", salePrice)
				}
				product.SalePrice = &sp
			}

			if err := (*a).cart.Add(cmd.Context(), product, quantity); err != nil {
				return err
			}
			return printCart(cmd, (*a).cart)
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "product name for the local snapshot")
	addCmd.Flags().StringVar(&slug, "slug", "", "product slug")
	addCmd.Flags().StringVar(&image, "image", "", "product thumbnail URL")
	addCmd.Flags().StringVar(&price, "price", "", "unit price")
	addCmd.Flags().StringVar(&salePrice, "sale-price", "", "sale price, when on sale")

	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCart(cmd, (*a).cart)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := (*a).cart.SetQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			return printCart(cmd, (*a).cart)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).cart.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd, (*a).cart)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).cart.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
			return nil
		},
	})

	return cmd
}

func newFavoritesCommand(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorites (login required)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Toggle a product's favorite state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := (*a).favorites.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintln(cmd.OutOrStdout(), "Added to favorites.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Removed from favorites.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := (*a).favorites.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tNAME\tADDED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ProductID, e.Product.Name, e.AddedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <product-id>...",
		Short: "Check favorite state for a batch of products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := (*a).favorites.CheckMany(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, id := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", id, result[id])
			}
			return nil
		},
	})

	return cmd
}

func printCart(cmd *cobra.Command, cart *usecase.CartUsecase) error {
	items := cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cart is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			l.ProductID, l.Name, l.Quantity, l.EffectiveUnitPrice().StringFixed(2), l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%d\t\t%s\n", cart.ItemCount(), cart.TotalPrice().StringFixed(2))
	return w.Flush()
}

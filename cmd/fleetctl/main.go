package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mercfleet/fleet-client-go/api"
	"github.com/mercfleet/fleet-client-go/internal/config"
	"github.com/mercfleet/fleet-client-go/session"
	"github.com/mercfleet/fleet-client-go/session/boltstore"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Command line client for the Mercury fleet backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppName(config.New().GetAppName())
			return cmd.Help()
		},
	}

	cmd.AddCommand(newLoginCommand())
	cmd.AddCommand(newLogoutCommand())
	cmd.AddCommand(newWhoamiCommand())
	cmd.AddCommand(newRefreshCommand())
	cmd.AddCommand(newDriversCommand())
	return cmd
}

// app wires the store, session manager and API client for one invocation.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *boltstore.Store
	manager *session.Manager
	client  *api.Client
	auth    *api.AuthService
}

func newApp() (*app, error) {
	_ = godotenv.Load()
	cfg := config.New()
	log := newLogger(cfg.GetLogLevel())

	store, err := boltstore.Open(filepath.Join(cfg.GetDataFolder(), "session.db"))
	if err != nil {
		return nil, err
	}

	auth, err := api.NewAuthService(cfg.GetBaseURL(), api.WithAuthTimeout(cfg.GetHTTPTimeout()))
	if err != nil {
		store.Close()
		return nil, err
	}

	manager, err := session.NewManager(store, auth, session.Config{
		IdleTimeout:         cfg.GetIdleTimeout(),
		RefreshInterval:     cfg.GetRefreshInterval(),
		PointerMoveThrottle: cfg.GetPointerMoveThrottle(),
	},
		session.WithLogger(log),
		session.WithHooks(session.Hooks{
			PromptStayLoggedIn: promptStayLoggedIn,
			RedirectToLogin: func() {
				fmt.Println("Logged out. Run `fleetctl login` to sign in again.")
			},
		}),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := manager.Initialize(); err != nil {
		store.Close()
		return nil, err
	}

	client, err := api.NewClient(cfg.GetBaseURL(), store, manager,
		api.WithTimeout(cfg.GetHTTPTimeout()),
		api.WithClientLogger(log),
	)
	if err != nil {
		manager.Dispose()
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: store, manager: manager, client: client, auth: auth}, nil
}

func (a *app) close() {
	a.manager.Dispose()
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close session store")
	}
}

func newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if password == "" {
				fmt.Print("Password: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}

			s, err := a.auth.Token(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.manager.SetSession(s); err != nil {
				return err
			}

			if info := a.manager.UserInfo(); info != nil {
				fmt.Printf("Logged in as %s (tenant %s)\n", info.Username, info.TenantName)
			} else {
				fmt.Println("Logged in")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account username")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.manager.Logout()
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !a.manager.LoggedIn() {
				fmt.Println("Not logged in")
				return nil
			}
			info := a.manager.UserInfo()
			if info == nil {
				fmt.Println("Logged in (token claims unavailable)")
				return nil
			}
			fmt.Printf("User:      %s (%s)\n", info.Username, info.UserID)
			fmt.Printf("Tenant:    %s (%s)\n", info.TenantName, info.TenantDomain)
			fmt.Printf("Companies: %s\n", strings.Join(info.Companies, ", "))
			fmt.Printf("Admin:     %v\n", info.IsCompanyAdmin)
			if info.Exp > 0 {
				fmt.Printf("Expires:   %s\n", time.Unix(info.Exp, 0).Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force an access token refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.manager.RefreshAccessToken(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Access token refreshed")
			return nil
		},
	}
}

func newDriversCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Driver resource operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List fleet drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			drivers, err := a.client.Drivers.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range drivers {
				fmt.Printf("%d\t%s %s\t%s\tCDL %s (exp %s)\n",
					d.ID, d.FirstName, d.LastName, d.Company, d.CDLNumber, d.CDLExpirationDate)
			}
			return nil
		},
	})
	return cmd
}

func promptStayLoggedIn(idleFor time.Duration) bool {
	fmt.Printf("Session idle for %s. Stay logged in? [y/N] ", idleFor.Round(time.Second))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func displayAppName(appName string) {
	myFigure := figure.NewFigure(appName, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

// peergate es la CLI de administración del subsistema de identidad y uso.
// La superficie web del dashboard vive en otra capa; esta herramienta opera
// directo contra el storage para tareas de operación: listar clientes,
// emitir reset tokens, aplicar migraciones.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/peergate/internal/audit"
	"github.com/dropDatabas3/peergate/internal/config"
	"github.com/dropDatabas3/peergate/internal/email"
	"github.com/dropDatabas3/peergate/internal/metrics"
	"github.com/dropDatabas3/peergate/internal/observability/logger"
	"github.com/dropDatabas3/peergate/internal/resettoken"
	"github.com/dropDatabas3/peergate/internal/setup"
	"github.com/dropDatabas3/peergate/internal/store/pg"
)

var (
	cfgPath string
	cfg     *config.Config
)

func main() {
	root := &cobra.Command{
		Use:           "peergate",
		Short:         "Client identity and usage accounting admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.App.LogLevel,
				ServiceName: "peergate",
			})
			metrics.Register(nil)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "peergate.yaml", "config file path")

	root.AddCommand(migrateCmd(), clientsCmd(), resetTokenCmd(), challengeCmd(), providersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func openStore(ctx context.Context) (*pg.Store, error) {
	return pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
			if err != nil {
				return err
			}
			sort.Strings(files)
			for _, f := range files {
				b, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				if _, err := store.Pool().Exec(ctx, string(b)); err != nil {
					return fmt.Errorf("apply %s: %w", filepath.Base(f), err)
				}
				logger.L().Info("migration applied", logger.String("file", filepath.Base(f)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations/postgres", "migrations directory")
	return cmd
}

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "clients", Short: "Inspect dashboard clients"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active clients grouped by origin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			grouped, err := store.ListGrouped(ctx)
			if err != nil {
				return err
			}
			for group, clients := range grouped {
				fmt.Printf("%s (%d)\n", group, len(clients))
				for _, c := range clients {
					name := c.Name
					if name == "" {
						name = "-"
					}
					fmt.Printf("  %s  %-30s  %s\n", c.ID, c.Email, name)
				}
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Soft-delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SoftDelete(ctx, args[0]); err != nil {
				return err
			}
			audit.NewPG(store.Pool()).Log(ctx, audit.Event{
				Actor:   "admin-cli",
				Action:  "client.delete",
				Message: "client " + args[0] + " soft-deleted",
			})
			fmt.Println("deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

// mailSender arma el Sender SMTP desde config; nil si no hay host.
func mailSender() email.Sender {
	if cfg.SMTP.Host == "" {
		return nil
	}
	s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.FromEmail, cfg.SMTP.Username, cfg.SMTP.Password)
	if cfg.SMTP.TLSMode != "" {
		s.TLSMode = cfg.SMTP.TLSMode
	}
	return s
}

func resetTokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reset-token", Short: "Manage password reset tokens"}

	gen := &cobra.Command{
		Use:   "generate <client-id>",
		Short: "Issue a reset code for a client (expires any active one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr := resettoken.New(store, store, audit.NewPG(store.Pool()), mailSender(), cfg.ResetTTL())
			tok, err := mgr.Generate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate <client-id> <token>",
		Short: "Check whether a reset code is still valid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr := resettoken.New(store, store, audit.Nop{}, nil, cfg.ResetTTL())
			ok, err := mgr.Validate(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("token invalid or expired")
			}
			fmt.Println("valid")
			return nil
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <client-id> <token>",
		Short: "Expire a reset code immediately",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr := resettoken.New(store, store, audit.NewPG(store.Pool()), nil, cfg.ResetTTL())
			return mgr.Revoke(ctx, args[0], args[1])
		},
	}

	cmd.AddCommand(gen, validate, revoke)
	return cmd
}

func challengeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "challenge", Short: "Inspect the TOTP challenge backend"}

	check := &cobra.Command{
		Use:   "check",
		Short: "Round-trip a token against the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			reg, err := setup.Registry(cfg)
			if err != nil {
				return err
			}
			tok, err := reg.Issue(ctx, "challenge-check")
			if err != nil {
				return err
			}
			if _, err := reg.Resolve(ctx, tok); err != nil {
				return err
			}
			if err := reg.Consume(ctx, tok); err != nil {
				return err
			}
			// Un segundo consume tiene que rebotar: si no, el backend no
			// está cumpliendo el contrato de un solo uso.
			if err := reg.Consume(ctx, tok); err == nil {
				return fmt.Errorf("backend %s accepted a second consume", cfg.Challenge.Backend)
			}
			fmt.Printf("backend %s ok\n", cfg.Challenge.Backend)
			return nil
		},
	}

	cmd.AddCommand(check)
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured OIDC providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := setup.Verifier(cfg)
			if v == nil {
				fmt.Println("no OIDC providers configured")
				return nil
			}
			names := v.DisplayNames()
			issuers := make([]string, 0, len(names))
			for iss := range names {
				issuers = append(issuers, iss)
			}
			sort.Strings(issuers)
			for _, iss := range issuers {
				fmt.Printf("%-20s %s\n", names[iss], iss)
			}
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/config"
	pgstore "mpt-command-center/internal/infra/postgres"
)

type inviteOptions struct {
	count     int
	maxUses   int
	expiresIn time.Duration
	createdBy string
}

// NewInviteCmd generates invitation codes straight into the document store,
// which bootstraps the first accounts before any admin exists.
func NewInviteCmd(configPath *string) *cobra.Command {
	opts := inviteOptions{}
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Generate invitation codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvite(cmd, *configPath, opts)
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 1, "number of codes to generate (max 100)")
	cmd.Flags().IntVar(&opts.maxUses, "max-uses", 1, "registrations allowed per code, 0 for unlimited")
	cmd.Flags().DurationVar(&opts.expiresIn, "expires", 0, "code lifetime such as 72h, 0 for no expiry")
	cmd.Flags().StringVar(&opts.createdBy, "created-by", "cli", "creator recorded on the codes")
	return cmd
}

func runInvite(cmd *cobra.Command, configPath string, opts inviteOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured; in-memory codes would vanish with this process")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pool.Close()

	invitations := app.NewInvitationService(pgstore.NewDocumentStore(pool), log, time.Now)
	codes, err := invitations.Generate(ctx, opts.createdBy, opts.count, opts.maxUses, opts.expiresIn)
	if err != nil {
		return err
	}
	for _, c := range codes {
		fmt.Fprintln(cmd.OutOrStdout(), c.Code)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/bstardust/photo-frame-formatter/internal/auth"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAuthCommand(v *viper.Viper, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to the remote photo feed",
		Long:  `Runs the OAuth consent flow for the photo feed and stores the resulting token so later "format --source remote" runs are non-interactive.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Feed.ClientID == "" {
				return common.NewConfigError("feed.client-id is required")
			}

			tok, err := auth.Consent(cmd.Context(), feedAuth(cfg).OAuth2(), cmd.InOrStdin(), cmd.OutOrStderr())
			if err != nil {
				return err
			}
			store := &auth.TokenStore{Path: cfg.Feed.TokenFile}
			if err := store.Save(tok); err != nil {
				return fmt.Errorf("failed to save credential: %w", err)
			}
			logger.Info("Stored feed credential in %s", store.Path)
			return nil
		},
	}

	cmd.Flags().String("client-id", "", "OAuth client ID")
	cmd.Flags().String("client-secret", "", "OAuth client secret")
	bindFlags(v, cmd.Flags().Lookup, map[string]string{
		"feed.client-id":     "client-id",
		"feed.client-secret": "client-secret",
	})

	return cmd
}

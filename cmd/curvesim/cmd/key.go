package cmd

import (
	"github.com/spf13/cobra"

	solanautil "curvedex/pkg/solana"
)

var (
	keystoreDir string
	keyPassword string
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "manage operator keys",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var genKeyCmd = &cobra.Command{
	Use:   "generate",
	Short: "create an encrypted operator key for the launch keeper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if keyPassword == "" {
			return ErrInvalidArgs
		}
		ks := solanautil.NewKeystore(keystoreDir)
		address, err := ks.Save(ks.Generate(), keyPassword)
		if err != nil {
			return err
		}
		cmd.Printf("created operator key %s in %s\n", address, keystoreDir)
		return nil
	},
}

func init() {
	genKeyCmd.Flags().StringVar(&keystoreDir, "dir", "keystore", "keystore directory")
	genKeyCmd.Flags().StringVar(&keyPassword, "password", "", "password the key is encrypted with")
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/permutation"
)

var (
	encryptSeed    uint64
	encryptShowKey bool
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [MESSAGE_FILE|-]",
	Short: "Encipher a message under a random substitution key",
	Long: "Lowercases the message, drops symbols outside the alphabet, collapses\n" +
		"whitespace and substitutes every symbol under a key drawn from --seed.\n" +
		"Prints the ciphertext; --show-key also prints the key on stderr.",
	Args: cobra.MaximumNArgs(1),
	RunE: runEncrypt,
}

func init() {
	encryptCmd.Flags().Uint64Var(&encryptSeed, "seed", 0, "random seed for the key")
	encryptCmd.Flags().BoolVar(&encryptShowKey, "show-key", false, "print the key on stderr")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.History = false
	a, err := openApp(cmd, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	in, _, err := openInput(cmd, args, "message")
	if err != nil {
		return err
	}
	msg, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	_, ct, key := a.Encrypt(string(msg), encryptSeed)
	fmt.Fprintln(cmd.OutOrStdout(), string(ct))
	if encryptShowKey {
		fmt.Fprint(cmd.ErrOrStderr(), formatKey(a.Alphabet(), key))
	}
	return nil
}

// formatKey renders a plain → cipher mapping, one row per line.
func formatKey(a *alphabet.Alphabet, key permutation.Key) string {
	var plain, ciph strings.Builder
	for i := range key.Len() {
		plain.WriteRune(a.Symbol(i))
		ciph.WriteRune(a.Symbol(key.Image(i)))
	}
	return fmt.Sprintf("plain:  %q\ncipher: %q\n", plain.String(), ciph.String())
}

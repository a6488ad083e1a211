package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/inbox/internal/credential"
)

var credentialKeys = []string{
	credential.ClaudeAPIKey,
	credential.GeminiAPIKey,
	credential.IMAPPassword,
}

func validKey(key string) error {
	if !slices.Contains(credentialKeys, key) {
		return fmt.Errorf("unknown credential %q (one of %s)", key, strings.Join(credentialKeys, ", "))
	}
	return nil
}

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Store API keys and passwords in the system keyring",
	}

	setCmd := &cobra.Command{
		Use:       "set <key>",
		Short:     "Store a credential, read from the terminal or stdin",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentialKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validKey(key); err != nil {
				return err
			}
			value, err := readSecret(cmd, key)
			if err != nil {
				return err
			}
			if value == "" {
				return errors.New("empty value, nothing stored")
			}
			if err := credential.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:       "delete <key>",
		Short:     "Remove a stored credential",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentialKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validKey(args[0]); err != nil {
				return err
			}
			return credential.Delete(args[0])
		},
	}

	cmd.AddCommand(setCmd, deleteCmd)
	return cmd
}

// readSecret prompts without echo on a terminal and reads one line from a
// pipe otherwise.
func readSecret(cmd *cobra.Command, key string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ", key)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", key, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return strings.TrimSpace(line), nil
}

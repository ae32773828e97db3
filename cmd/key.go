package cmd

import (
	"fmt"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// keyCmd は保存済みの API キーを管理するのだ。
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Gemini API キーを管理するのだ。",
}

var keySetCmd = &cobra.Command{
	Use:   "set KEY",
	Short: "キーを疎通確認してから保存するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(loadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Set(cmd.Context(), args[0]); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), domain.UserMessage(err))
			return fmt.Errorf("キーを保存できなかったのだ: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "保存したのだ: %s\n", domain.MaskKey(args[0]))
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "保存済みのキーを削除するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(loadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "保存済みのキーを削除したのだ。")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "現在有効なキーの出どころを表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(loadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		cred, ok := a.store.Get(cmd.Context())
		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintln(out, "source: none")
			return nil
		}
		fmt.Fprintf(out, "source: %s\nkey:    %s\n", cred.Source, domain.MaskKey(cred.Key))
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)
}

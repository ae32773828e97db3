package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "bizplan"
	envPrefix = "BIZPLAN"
)

// rootCmd は bizplan CLI の起点なのだ。
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "企業情報から PSST 事業計画書と説明用画像を生成するのだ。",
	Long: `企業情報（JSON またはフラグ）と添付ファイルを Gemini に渡して、
初期創業パッケージ形式の PSST 事業計画書と説明用の画像を生成するのだ。
API キーは "key set" で保存するか、環境変数 GEMINI_API_KEY で渡すのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "設定ファイルなのだ（既定: ./bizplan.yaml または ~/.config/bizplan/bizplan.yaml）。")
	pf.String("env-file", ".env", "起動時に読み込む .env ファイルなのだ。")
	pf.String("log-level", "info", "ログレベル (debug, info, warn, error) なのだ。")
	pf.String("log-format", "text", "ログ形式 (text, json) なのだ。")

	// --- AIモデル設定 ---
	pf.String("model", "", "計画書の生成に使う Gemini モデル名なのだ。")
	pf.String("image-model", "", "画像生成に使う Gemini モデル名なのだ。")

	// --- キーの保存先 ---
	pf.String("credential-backend", "", "キーの保存先 (file, redis) なのだ。")
	pf.String("credential-dir", "", "file バックエンドの保存ディレクトリなのだ。")
	pf.String("redis-addr", "", "redis バックエンドの接続先なのだ。")

	for _, name := range []string{"log-level", "log-format", "model", "image-model", "credential-backend", "credential-dir", "redis-addr"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(generateCmd, keyCmd)
}

// initConfig は設定ファイルと BIZPLAN_ 接頭辞の環境変数を viper に読み込むのだ。
func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// preRunAppE は .env を読み込んでからロガーを準備するのだ。
func preRunAppE(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(".env ファイル %s の読み込みに失敗したのだ: %w", envFile, err)
		}
	}

	logger, err := newLogger(viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newLogger(level, format string) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if level == "" {
		level = lvl.String()
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("不正なログレベルなのだ: %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("不正なログ形式なのだ: %q", format)
	}
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

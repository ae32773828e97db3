package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-bizplan-kit/examples"
	"github.com/shouni/go-bizplan-kit/pkg/attachment"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/publisher"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-utils/iohandler"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	InputFile   string
	UseSample   bool
	OutputDir   string
	MetricsFile string
	Attachments []string
	Info        domain.CompanyInfo
}

var genOpts generateOptions

// remoteIO は --input の読み込みと成果物の書き出しを、ローカルと gs:// の両方で扱うのだ。
type remoteIO struct {
	read   func(ctx context.Context, path string) ([]byte, error)
	writer publisher.OutputWriter
}

// newRemoteIO は GCS クライアントファクトリから Reader と Writer を用意するのだ。
// ローカルパスもこの Reader/Writer が扱うのだよ。
func newRemoteIO(ctx context.Context) (*remoteIO, error) {
	factory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCS クライアントファクトリの作成に失敗したのだ: %w", err)
	}
	reader, err := factory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := factory.NewOutputWriter()
	if err != nil {
		return nil, err
	}
	return &remoteIO{
		read: func(ctx context.Context, path string) ([]byte, error) {
			rc, err := reader.Open(ctx, path)
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		},
		writer: writer,
	}, nil
}

// generateCmd は、企業情報から事業計画書と画像を生成して出力ディレクトリに保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "事業計画書と説明用画像を生成するのだ。",
	Long: `企業情報を JSON ファイル（--input、'-' で標準入力）またはフラグで受け取り、
計画書を plan.json、画像を images/ 以下に書き出すのだ。
フラグで指定した項目は JSON の値を上書きするのだよ。`,
	RunE: generateCommand,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genOpts.InputFile, "input", "i", "", "企業情報の JSON ファイルなのだ（ローカル or gs://...、'-' で標準入力）。")
	f.BoolVar(&genOpts.UseSample, "sample", false, "同梱のサンプル企業情報を使うのだ。")
	f.StringVarP(&genOpts.OutputDir, "output-dir", "o", "output", "成果物の出力先なのだ（ローカル or gs://...）。")
	f.StringVar(&genOpts.MetricsFile, "metrics-file", "", "実行後にメトリクスを書き出すファイルなのだ。")
	f.StringArrayVarP(&genOpts.Attachments, "attach", "a", nil, "添付ファイルなのだ（複数指定できるのだ）。")

	f.StringVar(&genOpts.Info.CompanyName, "company-name", "", "기업명")
	f.StringVar(&genOpts.Info.BusinessItem, "business-item", "", "사업아이템")
	f.StringVar(&genOpts.Info.DevStatus, "dev-status", "", "현 개발상황")
	f.StringVar(&genOpts.Info.TargetAudience, "target-audience", "", "주요 타겟")
	f.StringVar(&genOpts.Info.TeamInfo, "team-info", "", "팀 전문성")
	f.StringVar(&genOpts.Info.AdditionalInfo, "additional-info", "", "추가 정보")
}

func generateCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rio, err := newRemoteIO(ctx)
	if err != nil {
		return err
	}

	info, err := resolveCompanyInfo(cmd, rio.read)
	if err != nil {
		return err
	}

	a, err := newApp(loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(genOpts.Attachments) > 0 {
		results := attachment.NewEncoder(a.cfg).EncodeAll(ctx, genOpts.Attachments)
		encoded := attachment.Successful(results)
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "添付ファイルをスキップしたのだ: %s (%v)\n", r.Path, r.Err)
			}
		}
		info.Attachments = append(info.Attachments, encoded...)
	}

	slog.Info("事業計画書の生成を開始するのだ！",
		"company", info.CompanyName,
		"text_model", a.cfg.PlanModel,
		"image_model", a.cfg.ImageModel,
		"attachments", len(info.Attachments),
	)

	result, runErr := a.manager.Generate(ctx, info)
	if genOpts.MetricsFile != "" {
		if err := a.recorder.WriteToTextfile(genOpts.MetricsFile); err != nil {
			slog.Warn("メトリクスの書き出しに失敗したのだ", "error", err)
		}
	}
	if runErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), domain.UserMessage(runErr))
		return fmt.Errorf("生成に失敗したのだ: %w", runErr)
	}

	pub, err := publisher.NewPublisher(rio.writer)
	if err != nil {
		return err
	}
	published, err := pub.Publish(ctx, result.Plan, result.Images, publisher.Options{OutputDir: genOpts.OutputDir})
	if err != nil {
		return fmt.Errorf("成果物の保存に失敗したのだ: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "request_id: %s\n", result.RequestID)
	fmt.Fprintf(out, "plan:       %s\n", published.PlanPath)
	fmt.Fprintf(out, "images:     %d\n", len(published.ImagePaths))
	for _, p := range published.ImagePaths {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	slog.Info("すべての生成工程が完了したのだ！", "elapsed", result.Elapsed)
	return nil
}

// resolveCompanyInfo は JSON 入力を読み込み、明示されたフラグで上書きするのだ。
func resolveCompanyInfo(cmd *cobra.Command, read func(context.Context, string) ([]byte, error)) (domain.CompanyInfo, error) {
	var info domain.CompanyInfo
	switch {
	case genOpts.UseSample:
		sample, err := examples.LoadSampleCompany()
		if err != nil {
			return info, err
		}
		info = sample
	case genOpts.InputFile != "":
		data, err := readInput(cmd.Context(), genOpts.InputFile, read)
		if err != nil {
			return info, err
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return info, fmt.Errorf("企業情報の JSON を解析できなかったのだ: %w", err)
		}
	}

	overrides := map[string]*string{
		"company-name":    &info.CompanyName,
		"business-item":   &info.BusinessItem,
		"dev-status":      &info.DevStatus,
		"target-audience": &info.TargetAudience,
		"team-info":       &info.TeamInfo,
		"additional-info": &info.AdditionalInfo,
	}
	flagValues := map[string]string{
		"company-name":    genOpts.Info.CompanyName,
		"business-item":   genOpts.Info.BusinessItem,
		"dev-status":      genOpts.Info.DevStatus,
		"target-audience": genOpts.Info.TargetAudience,
		"team-info":       genOpts.Info.TeamInfo,
		"additional-info": genOpts.Info.AdditionalInfo,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst = flagValues[name]
		}
	}

	if err := info.Validate(); err != nil {
		return info, err
	}
	return info, nil
}

func readInput(ctx context.Context, path string, read func(context.Context, string) ([]byte, error)) ([]byte, error) {
	if path == "-" {
		data, err := iohandler.ReadInput("")
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	data, err := read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("入力ファイル %s の読み込みに失敗したのだ: %w", path, err)
	}
	return data, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"eia-drafter/internal/config"
	"eia-drafter/internal/domain"
	"eia-drafter/internal/report"
	"eia-drafter/internal/service"
	"eia-drafter/internal/session"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type runOptions struct {
	files map[domain.Category]*[]string
	model string
	out   string
}

type pipelineRun func(s *service.ReportService, ctx context.Context, sess session.Session, model string) (session.Session, error)

func newRunCommands() []*cobra.Command {
	return []*cobra.Command{
		newRunCommand("audit", "Generate the validation report (Relatorio_Validacao.docx)", (*service.ReportService).RunAudit),
		newRunCommand("decision", "Generate the decision draft (Minuta_Decisao.docx)", (*service.ReportService).RunDecision),
		newRunCommand("run", "Generate the validation report and then the decision draft", (*service.ReportService).RunAll),
	}
}

func newRunCommand(use, short string, fn pipelineRun) *cobra.Command {
	opts := &runOptions{files: make(map[domain.Category]*[]string)}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, fn)
		},
	}
	for _, c := range domain.Categories {
		paths := new([]string)
		opts.files[c] = paths
		usage := fmt.Sprintf("PDF for %s (repeatable)", c.Label())
		if !c.Required() {
			usage += ", optional"
		}
		cmd.Flags().StringSliceVar(paths, string(c), nil, usage)
	}
	cmd.Flags().StringVar(&opts.model, "model", "", "model id (default from EIA_MODEL or the report template)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "directory for the generated .docx files")
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *runOptions, fn pipelineRun) error {
	log, sync := newLogger()
	defer sync()

	docs, err := readDocuments(opts.files)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	container, err := config.NewContainerWithConfig(loadConfig(), log)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := cmd.Context()
	svc := container.ReportService
	sess, err := svc.Upload(ctx, session.New(uuid.NewString(), "", time.Now()), docs)
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	for _, w := range sess.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}

	model := opts.model
	if model == "" {
		model = viper.GetString("model")
	}
	out, runErr := fn(svc, ctx, sess, model)

	for _, kind := range out.Available() {
		path := filepath.Join(opts.out, kind.Filename())
		if err := os.WriteFile(path, out.Reports[kind], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	printSummary(stdout, out)

	var genErr *service.GenerationFailedError
	if errors.As(runErr, &genErr) {
		for kind, sentinel := range out.Failures {
			fmt.Fprintf(stdout, "%s: %s\n", kind, sentinel)
		}
	}
	return runErr
}

func readDocuments(files map[domain.Category]*[]string) ([]domain.SourceDocument, error) {
	var docs []domain.SourceDocument
	for _, c := range domain.Categories {
		for _, path := range *files[c] {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, domain.SourceDocument{Category: c, Filename: filepath.Base(path), Data: data})
		}
	}
	if len(docs) == 0 {
		return nil, errors.New("no input files; pass --simulation, --form and --project")
	}
	return docs, nil
}

func printSummary(w io.Writer, s session.Session) {
	if len(s.Reports[domain.ReportAudit]) > 0 {
		status := report.BannerValidated
		if s.AuditInconsistent {
			status = report.BannerInconsistent
		}
		fmt.Fprintf(w, "audit: %s\n", status)
	}
	if len(s.Reports[domain.ReportDecision]) > 0 {
		if missing := s.DecisionFields.Placeholders(); len(missing) > 0 {
			fmt.Fprintf(w, "decision: %d field(s) left as %s\n", len(missing), domain.Placeholder)
		} else {
			fmt.Fprintln(w, "decision: all fields filled")
		}
	}
	if s.Model != "" {
		fmt.Fprintf(w, "model: %s\n", s.Model)
	}
}

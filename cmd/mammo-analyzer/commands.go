package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
	"github.com/ironsheep/mammogram-analyzer/internal/httpapi"
	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
	"github.com/ironsheep/mammogram-analyzer/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /analyze over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		a, err := newAnalyzer()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		logger.Info("starting mammo-analyzer",
			zap.String("version", Version),
			zap.String("backend", a.Backend()),
			zap.Bool("ocr", a.AnnotationsEnabled()),
		)

		srv := httpapi.New(a, logger.Named("http"), httpapi.Options{
			MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			AllowOrigins:    cfg.Server.CORS.AllowOrigins,
			ReadTimeout:     cfg.GetReadTimeout(),
			WriteTimeout:    cfg.GetWriteTimeout(),
			ShutdownTimeout: cfg.GetShutdownTimeout(),
		})
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdin/stdout",
	Long: `Runs a JSON-RPC 2.0 MCP server on stdin/stdout exposing the mammogram_*
tools. Configure it in your MCP client; logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		srv := server.New(a,
			server.WithLogger(logger.Named("mcp")),
			server.WithVersion(Version),
		)
		return srv.Run(ctx)
	},
}

var (
	analyzeJSON        bool
	analyzeOverlay     string
	analyzeAnnotations bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyse one image and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		a, err := newAnalyzer()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		report, err := a.Analyze(ctx, data, analysis.AnalyzeOptions{
			Overlay:     analyzeOverlay != "",
			Annotations: analyzeAnnotations,
		})
		if err != nil {
			return err
		}

		if analyzeOverlay != "" {
			if err := writeOverlay(analyzeOverlay, report.Overlay); err != nil {
				return err
			}
			// The image went to disk; keep stdout readable.
			report.Overlay = nil
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		_, err = fmt.Fprintln(out, report.Result)
		return err
	},
}

// writeOverlay decodes the overlay PNG and writes it to path.
func writeOverlay(path string, overlay *imaging.OverlayResult) error {
	if overlay == nil {
		return fmt.Errorf("no overlay was produced")
	}
	data, err := base64.StdEncoding.DecodeString(overlay.ImageBase64)
	if err != nil {
		return fmt.Errorf("failed to decode overlay: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeOverlay, "overlay", "", "write a PNG with regions outlined to this path")
	analyzeCmd.Flags().BoolVar(&analyzeAnnotations, "annotations", false, "read laterality/view markers with OCR (requires ocr.enabled)")
}

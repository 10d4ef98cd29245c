package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/llm"
	"github.com/dgallion1/layername/internal/names"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/dgallion1/layername/internal/settings"
	"github.com/dgallion1/layername/internal/uichannel"
	"github.com/spf13/cobra"
)

type renameFlags struct {
	output    string
	format    string
	vision    bool
	context   string
	model     string
	selection []string
}

func newRenameCmd() *cobra.Command {
	var f renameFlags
	cmd := &cobra.Command{
		Use:   "rename <doc.json|file.svg>",
		Short: "Rename the layers of one document",
		Long: `Run one rename against a document file and write the renamed document as
JSON. Progress messages are logged to stderr.

Example:
  layername rename screen.svg -o renamed.json --format mapping`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the renamed document here instead of stdout")
	cmd.Flags().StringVar(&f.format, "format", "", "response format: outline, mapping or auto")
	cmd.Flags().BoolVar(&f.vision, "vision", false, "attach previews of the selected layers")
	cmd.Flags().StringVar(&f.context, "context", "", "describe the design to the model")
	cmd.Flags().StringVar(&f.model, "model", "", "override the model")
	cmd.Flags().StringSliceVar(&f.selection, "select", nil, "root layer IDs to rename (default: document selection)")
	return cmd
}

func runRename(cmd *cobra.Command, path string, f renameFlags) error {
	log := newLogger(cmd.ErrOrStderr())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format := f.format
	if format == "" {
		format = cfg.ResponseFormat
	}
	form, err := names.ParseForm(format)
	if err != nil {
		return err
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	mem := host.NewMemory(doc)
	if len(f.selection) > 0 {
		if err := mem.Select(f.selection); err != nil {
			return err
		}
	}

	store, err := settings.OpenSQLite(cfg.SettingsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Defaults: pipeline.DefaultsFromConfig(cfg),
		Settings: store,
		Sink: uichannel.SinkFunc(func(m uichannel.Message) {
			log.Info("message", "type", m.Type, "code", m.Code, "text", m.Message,
				"renamed", m.Renamed, "unused", m.UnusedNames)
		}),
		Stats: llm.NewLLMStats(0),
		Open:  openCompleter,
		Log:   log,
	})

	docID := doc.ID
	if docID == "" {
		docID = filepath.Base(path)
	}
	useVision := cfg.UseVision
	if cmd.Flags().Changed("vision") {
		useVision = f.vision
	}
	run := pipeline.NewRun(docID, mem, pipeline.Options{
		Form:      form,
		UseVision: useVision,
		Context:   f.context,
		Model:     f.model,
	})
	worker.Process(cmd.Context(), run)

	snap := run.Snapshot()
	if snap.State == pipeline.StateError {
		return fmt.Errorf("rename failed (%s): %s", snap.ErrorKind, snap.Error)
	}

	out := cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := writeDocument(out, mem.Document()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "renamed %d of %d layers (%d unused names)\n",
		snap.Progress.Renamed, snap.Progress.Layers, len(snap.UnusedNames))
	return nil
}

func readDocument(path string) (*layertree.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return host.ParseSVG(file, filepath.Base(path))
	case ".json":
		return layertree.DecodeDocument(file)
	}
	return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
}

func writeDocument(w io.Writer, doc *layertree.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

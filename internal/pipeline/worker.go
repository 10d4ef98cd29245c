package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/layername/internal/config"
	"github.com/dgallion1/layername/internal/fault"
	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/layertree"
	"github.com/dgallion1/layername/internal/llm"
	"github.com/dgallion1/layername/internal/names"
	"github.com/dgallion1/layername/internal/reconcile"
	"github.com/dgallion1/layername/internal/settings"
	"github.com/dgallion1/layername/internal/uichannel"
)

// CompleterFactory opens a completion client for one run.
type CompleterFactory func(ctx context.Context, opts llm.Options) (llm.Completer, error)

// Defaults are the service-level fallbacks for per-run settings.
type Defaults struct {
	Provider         string
	OpenRouterAPIKey string
	OpenRouterURL    string
	GeminiAPIKey     string
	Model            string
	VisionModel      string
	Context          string
	ExportScale      float64
}

func DefaultsFromConfig(cfg config.Config) Defaults {
	return Defaults{
		Provider:         cfg.Provider,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		OpenRouterURL:    cfg.OpenRouterURL,
		GeminiAPIKey:     cfg.GeminiAPIKey,
		Model:            cfg.Model,
		VisionModel:      cfg.VisionModel,
		Context:          cfg.ContextDescription,
		ExportScale:      cfg.ExportScale,
	}
}

// Worker runs the rename flow for one run at a time.
type Worker struct {
	defaults Defaults
	settings settings.Store
	sink     uichannel.Sink
	stats    *llm.LLMStats
	cooldown *Cooldown
	open     CompleterFactory
	log      *slog.Logger
}

// WorkerDeps wires a Worker. Settings, Stats and Cooldown may be nil; Open
// defaults to llm.Open.
type WorkerDeps struct {
	Defaults Defaults
	Settings settings.Store
	Sink     uichannel.Sink
	Stats    *llm.LLMStats
	Cooldown *Cooldown
	Open     CompleterFactory
	Log      *slog.Logger
}

func NewWorker(d WorkerDeps) *Worker {
	if d.Open == nil {
		d.Open = llm.Open
	}
	if d.Sink == nil {
		d.Sink = uichannel.SinkFunc(func(uichannel.Message) {})
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Defaults.ExportScale <= 0 {
		d.Defaults.ExportScale = 1
	}
	return &Worker{
		defaults: d.Defaults,
		settings: d.Settings,
		sink:     d.Sink,
		stats:    d.Stats,
		cooldown: d.Cooldown,
		open:     d.Open,
		log:      d.Log,
	}
}

// runSettings are the resolved per-run choices.
type runSettings struct {
	provider    string
	apiKey      string
	model       string
	visionModel string
	context     string
}

// resolve layers run options over stored settings over service defaults.
func (w *Worker) resolve(ctx context.Context, opts Options) (runSettings, error) {
	stored := map[string]string{}
	if w.settings != nil {
		var err error
		if stored, err = w.settings.All(ctx); err != nil {
			return runSettings{}, fmt.Errorf("load settings: %w", err)
		}
	}
	pick := func(vals ...string) string {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				return v
			}
		}
		return ""
	}

	rs := runSettings{
		provider:    pick(stored[settings.KeyProvider], w.defaults.Provider, llm.ProviderOpenRouter),
		model:       pick(opts.Model, stored[settings.KeyModel], w.defaults.Model),
		visionModel: pick(opts.Model, stored[settings.KeyVisionModel], w.defaults.VisionModel, stored[settings.KeyModel], w.defaults.Model),
		context:     pick(opts.Context, stored[settings.KeyContext], w.defaults.Context, llm.DefaultContext),
	}
	envKey := w.defaults.OpenRouterAPIKey
	if strings.EqualFold(rs.provider, llm.ProviderGemini) {
		envKey = w.defaults.GeminiAPIKey
	}
	rs.apiKey = pick(stored[settings.KeyAPIKey], envKey)
	return rs, nil
}

// Process runs the full rename flow for a run. The outcome is recorded on the
// run and published to the sink; Process itself never returns an error.
func (w *Worker) Process(ctx context.Context, run *Run) {
	log := w.log.With("run_id", run.ID, "doc_id", run.DocID)
	provider := run.Provider()

	rs, err := w.resolve(ctx, run.Options)
	if err != nil {
		w.fail(run, log, err)
		return
	}
	w.emit(run, uichannel.Message{
		Type:        uichannel.TypeSettingsLoaded,
		Model:       rs.model,
		VisionModel: rs.visionModel,
		Context:     rs.context,
		HasAPIKey:   rs.apiKey != "",
	})

	// Selection
	ids, err := provider.Selection(ctx)
	if err != nil {
		w.fail(run, log, fmt.Errorf("read selection: %w", err))
		return
	}
	if !w.step(run, log, StateSelectionCaptured) {
		return
	}
	run.Update(func(p *Progress) { p.Selected = len(ids) })
	w.emit(run, uichannel.Message{Type: uichannel.TypeSelectionUpdate, SelectedCount: len(ids)})

	if len(ids) == 0 {
		log.Info("nothing selected")
		if w.step(run, log, StateDone) {
			w.emit(run, uichannel.Message{
				Type:    uichannel.TypeComplete,
				Code:    fault.Kind(fault.ErrEmptySelection),
				Message: "No layers selected",
			})
		}
		return
	}

	// Serialize
	nodes, err := provider.Snapshot(ctx, ids)
	if err != nil {
		w.fail(run, log, fmt.Errorf("snapshot selection: %w", err))
		return
	}
	infos := layertree.SerializeAll(nodes)
	total := layertree.TotalLayers(infos)
	if !w.step(run, log, StateSerialized) {
		return
	}
	run.Update(func(p *Progress) { p.Layers = total })
	w.emit(run, uichannel.Message{Type: uichannel.TypeLayerCount, LayerCount: total, SelectedCount: len(ids)})
	log.Info("serialized selection", "roots", len(infos), "layers", total)

	var previews []llm.Preview
	if run.Options.UseVision {
		previews = w.exportPreviews(ctx, log, provider, nodes)
		run.Update(func(p *Progress) { p.Previews = len(previews) })
	}
	model := rs.model
	if len(previews) > 0 {
		model = rs.visionModel
	}

	req, _, err := llm.BuildRequest(llm.PromptInput{
		Context:  rs.context,
		Form:     run.Options.Form,
		Layers:   infos,
		Previews: previews,
		Model:    model,
	})
	if err != nil {
		w.fail(run, log, err)
		return
	}
	w.emit(run, uichannel.Message{Type: uichannel.TypeContext, Context: rs.context})

	completer, err := w.open(ctx, llm.Options{
		Provider: rs.provider,
		APIKey:   rs.apiKey,
		BaseURL:  w.defaults.OpenRouterURL,
		Model:    model,
		Stats:    w.stats,
	})
	if err != nil {
		w.fail(run, log, fmt.Errorf("open %s client: %w", rs.provider, err))
		return
	}
	defer completer.Close()
	run.SetModel(completer.Model())

	// Request
	if !w.step(run, log, StateRequestSent) {
		return
	}
	log.Info("requesting names", "model", completer.Model(), "previews", len(previews))
	completion, err := completer.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, fault.ErrMalformedResponse) && !w.step(run, log, StateResponseReceived) {
			return
		}
		w.fail(run, log, err)
		return
	}
	if !w.step(run, log, StateResponseReceived) {
		return
	}
	run.Update(func(p *Progress) {
		p.PromptTokens = completion.PromptTokens
		p.CompletionTokens = completion.CompletionTokens
	})
	w.emit(run, uichannel.Message{
		Type:             uichannel.TypeTokenInfo,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		Model:            completion.Model,
	})

	// Parse
	table, err := names.Parse(completion.Text, run.Options.Form)
	if err != nil {
		if errors.Is(err, fault.ErrNoNamesFound) && !w.step(run, log, StateParsed) {
			return
		}
		w.fail(run, log, err)
		return
	}
	if !w.step(run, log, StateParsed) {
		return
	}
	run.Update(func(p *Progress) {
		p.Entries = len(table.Entries)
		p.Dropped = table.Dropped
	})
	log.Info("parsed names", "form", table.Form, "entries", len(table.Entries), "dropped", table.Dropped)

	// Reconcile and write back
	if !w.step(run, log, StateReconciling) {
		return
	}
	res, err := reconcile.Table(infos, table)
	if err != nil {
		w.fail(run, log, err)
		return
	}
	run.SetResult(res)

	renames := make([]host.Rename, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		renames = append(renames, host.Rename{ID: a.ID, Name: a.Name})
	}
	applied, err := provider.Rename(ctx, renames)
	if err != nil {
		w.fail(run, log, fmt.Errorf("apply names: %w", err))
		return
	}
	run.Update(func(p *Progress) { p.Renamed = applied })

	renamed := make(map[string]bool, len(res.Assignments))
	for _, a := range res.Assignments {
		renamed[a.ID] = true
	}
	for i, root := range infos {
		count := 0
		layertree.Walk([]*layertree.LayerInfo{root}, func(l *layertree.LayerInfo) {
			if renamed[l.ID] {
				count++
			}
		})
		w.emit(run, uichannel.Message{Type: uichannel.TypeProgress, Current: i + 1, Total: len(infos), Count: count})
	}

	if len(res.Unused) > 0 {
		w.emit(run, uichannel.Message{
			Type:        uichannel.TypeWarning,
			Code:        fault.Kind(fault.ErrPartialApplication),
			Message:     fmt.Sprintf("%d suggested names matched no layer", len(res.Unused)),
			UnusedNames: res.Unused,
		})
	}
	if table.Dropped > 0 {
		w.emit(run, uichannel.Message{
			Type:    uichannel.TypeWarning,
			Code:    fault.Kind(fault.ErrInvalidNames),
			Message: fmt.Sprintf("%d suggested names were rejected", table.Dropped),
		})
	}

	if !w.step(run, log, StateDone) {
		return
	}
	log.Info("run complete", "renamed", applied, "layers", total, "unused", len(res.Unused), "matches", res.Counts())
	w.emit(run, uichannel.Message{
		Type:        uichannel.TypeComplete,
		Renamed:     applied,
		TotalCount:  total,
		UnusedNames: res.Unused,
		Message:     fmt.Sprintf("Renamed %d of %d layers", applied, total),
	})
}

// exportPreviews rasterizes each exportable root. Layers that cannot be
// exported are skipped.
func (w *Worker) exportPreviews(ctx context.Context, log *slog.Logger, provider host.Provider, roots []*layertree.Node) []llm.Preview {
	var out []llm.Preview
	for _, n := range roots {
		if !n.Exportable {
			continue
		}
		png, err := provider.Export(ctx, n.ID, w.defaults.ExportScale)
		if err != nil {
			log.Warn("preview export failed", "layer_id", n.ID, "error", err)
			continue
		}
		out = append(out, llm.Preview{LayerID: n.ID, PNG: png})
	}
	return out
}

func (w *Worker) step(run *Run, log *slog.Logger, to State) bool {
	if err := run.Transition(to); err != nil {
		w.fail(run, log, err)
		return false
	}
	return true
}

func (w *Worker) fail(run *Run, log *slog.Logger, err error) {
	kind := fault.Kind(err)
	run.Fail(kind, err.Error())
	log.Error("run failed", "kind", kind, "error", err)
	if errors.Is(err, fault.ErrTransport) && w.cooldown != nil {
		w.cooldown.Start(run.DocID)
	}
	w.emit(run, uichannel.Message{Type: uichannel.TypeError, Code: kind, Message: err.Error()})
}

func (w *Worker) emit(run *Run, msg uichannel.Message) {
	msg.RunID = run.ID
	w.sink.Publish(msg)
}

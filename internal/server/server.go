// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts, and resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"

	"github.com/HendryAvila/phasekeep/internal/config"
	"github.com/HendryAvila/phasekeep/internal/history"
	"github.com/HendryAvila/phasekeep/internal/inference"
	"github.com/HendryAvila/phasekeep/internal/logging"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/prompts"
	"github.com/HendryAvila/phasekeep/internal/resolver"
	"github.com/HendryAvila/phasekeep/internal/resources"
	"github.com/HendryAvila/phasekeep/internal/scope"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/HendryAvila/phasekeep/internal/tools"
	"github.com/HendryAvila/phasekeep/internal/workflow"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds every long-lived component. The CLI uses it directly; the MCP
// server wraps it in tool handlers.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Catalog  *workflow.Catalog
	Plans    *plans.SQLiteRegistry
	Git      *history.GitReader
	Engine   *inference.Engine
	Store    *state.Store
	Resolver *resolver.Resolver
	Codec    *scope.Codec
}

// Build resolves all dependencies from cfg. The returned cleanup function
// closes the plan database and must be called on shutdown (typically via
// defer). It is always non-nil.
func Build(cfg *config.Config, logger *slog.Logger) (*App, func(), error) {
	logger = logging.OrDiscard(logger)

	catalog, err := workflow.Load(cfg.WorkflowsPath())
	if err != nil {
		return nil, noop, fmt.Errorf("loading workflows: %w", err)
	}

	registry, err := plans.OpenSQLite(cfg.PlansPath(), catalog)
	if err != nil {
		return nil, noop, fmt.Errorf("opening plan registry: %w", err)
	}
	cleanup := func() {
		if err := registry.Close(); err != nil {
			logger.Warn("plan registry close failed", "error", err)
		}
	}

	git := history.NewGitReader(cfg.Root, history.WithTimeout(cfg.History.Timeout))
	engine := inference.New(logging.WithComponent(logger, "inference"))

	rec := state.NewReconstructor(registry, git, engine, catalog,
		cfg.History.Limit, logging.WithComponent(logger, "reconstruct"))
	store := state.NewStore(cfg.StatePath(), catalog, rec, logging.WithComponent(logger, "store"))

	res := resolver.New(store, engine, catalog,
		resolver.WithPlans(registry),
		resolver.WithHistory(git, cfg.History.Limit),
		resolver.WithLogger(logging.WithComponent(logger, "resolver")),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Catalog:  catalog,
		Plans:    registry,
		Git:      git,
		Engine:   engine,
		Store:    store,
		Resolver: res,
		Codec:    scope.NewCodec(catalog.AllPhases()),
	}, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the plan database. It is always
// non-nil and safe to call even if construction failed.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	app, cleanup, err := Build(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	return NewMCPServer(app), cleanup, nil
}

// NewMCPServer registers the phase tools, prompts, and resources of app.
func NewMCPServer(app *App) *server.MCPServer {
	s := server.NewMCPServer(
		"phasekeep",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.AddTools(Tools(app)...)

	// --- Prompts ---

	startPrompt := prompts.NewStartPrompt(app.Catalog.DefaultWorkflow())
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Resources ---

	res := resources.NewHandler(app.Store, app.Catalog)
	s.AddResource(res.StateResource(), res.HandleState)
	s.AddResource(res.WorkflowsResource(), res.HandleWorkflows)

	return s
}

// Tools returns the MCP tools backed by app, in registration order.
func Tools(app *App) []server.ServerTool {
	// --- Authoritative state ---

	initTool := tools.NewInitializeTool(app.Store, app.Catalog, app.Plans, app.Git)
	transitionTool := tools.NewTransitionTool(app.Store, app.Catalog, app.Git)
	forceTool := tools.NewForceTransitionTool(app.Store, app.Catalog, app.Git)
	stateTool := tools.NewStateTool(app.Store, app.Catalog, app.Git)

	// --- Advisory detection & commit tagging ---

	detectTool := tools.NewDetectTool(app.Resolver, app.Git)
	encodeTool := tools.NewScopeEncodeTool(app.Codec, app.Catalog)

	// --- Plans ---

	planTool := tools.NewPlanCreateTool(app.Plans)

	return []server.ServerTool{
		{Tool: initTool.Definition(), Handler: initTool.Handle},
		{Tool: transitionTool.Definition(), Handler: transitionTool.Handle},
		{Tool: forceTool.Definition(), Handler: forceTool.Handle},
		{Tool: stateTool.Definition(), Handler: stateTool.Handle},
		{Tool: detectTool.Definition(), Handler: detectTool.Handle},
		{Tool: encodeTool.Definition(), Handler: encodeTool.Handle},
		{Tool: planTool.Definition(), Handler: planTool.Handle},
	}
}

// noop is the cleanup returned before anything needs closing.
func noop() {}

func serverInstructions() string {
	return `You have access to phasekeep, a workflow phase tracker for git branches.

## WHAT IT DOES

Every work item follows a workflow: an ordered list of phases such as
research → planning → tdd → integration → documentation. phasekeep records
which phase each branch is in and enforces that phases advance one at a time.

Branches must be named <type>/<number>-<slug>, e.g. feature/42-add-login.
The number is the work item id.

## TWO KINDS OF ANSWERS

- AUTHORITATIVE (phase_state, phase_initialize, phase_transition,
  phase_force_transition): read and write the recorded phase. Use these to
  decide what work is allowed. Their errors are exact and tell you what to do.
- ADVISORY (phase_detect): the best guess for status and context. It never
  fails and always reports its source and confidence. Never gate work on it.

## WORKFLOW

1. At the start of a work item, call phase_initialize with the workflow
   (feature, bug, hotfix, refactor, docs, epic). It also registers the plan
   that lets the record be rebuilt if local state is lost.
2. Tag every commit with the phase scope token. Call scope_encode with the
   phase (and optional subphase/cycle, e.g. tdd red cycle 1) and a subject
   to get a ready-made header such as feat(P_TDD_SP_C1_RED): add parser.
3. When a phase is done, call phase_transition with the next phase. Only the
   immediate next phase is accepted; the error names it otherwise.
4. To skip ahead or go back, call phase_force_transition with a reason.
   The reason is kept in the audit trail.

## WHEN TO CALL phase_detect

- The user asks "where am I?" or "what phase is this?"
- Before summarizing progress on a branch
- If confidence is low, suggest phase_initialize or scope-tagged commits.`
}

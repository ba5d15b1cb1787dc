// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools/prompts/resources that depend on them.
// No retrieval or conflict logic lives here — only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mnemolab/mnemo/internal/config"
	"github.com/mnemolab/mnemo/internal/embedding"
	"github.com/mnemolab/mnemo/internal/journal"
	"github.com/mnemolab/mnemo/internal/memory"
	"github.com/mnemolab/mnemo/internal/memtools"
	"github.com/mnemolab/mnemo/internal/prompts"
	"github.com/mnemolab/mnemo/internal/resources"
	"github.com/mnemolab/mnemo/internal/triage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the memory store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if memory init failed.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	s := server.NewMCPServer(
		"mnemo",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// Prompts are static text; they work whether or not the store came up.
	greetingPrompt := prompts.NewGreetingPrompt()
	s.AddPrompt(greetingPrompt.Definition(), greetingPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// The classifier is store-independent as well.
	classifier := triage.New()
	classifyTool := memtools.NewClassifyTool(classifier)
	s.AddTool(classifyTool.Definition(), classifyTool.Handle)

	// Everything else needs the store. A failed init degrades the server
	// to the stateless surface instead of killing the process: hosts
	// treat a dead stdio server worse than a limited one.
	cleanup := noop
	store, err := memory.New(cfg.Memory())
	if err != nil {
		log.Printf("WARNING: memory subsystem disabled: %v", err)
		return s, cleanup, nil
	}
	cleanup = func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: memory store close: %v", err)
		}
	}

	// Optional collaborators. A nil embedder means chunks store without
	// vectors; the journal is best-effort audit.
	embedder := embedding.NewFromEnv()
	jrnl := journal.NewFileStore(cfg.DataDir)
	if n, err := jrnl.Prune(cfg.JournalKeep); err != nil {
		log.Printf("WARNING: journal prune: %v", err)
	} else if n > 0 {
		log.Printf("journal: pruned %d old ingest records", n)
	}

	registerTools(s, store, classifier, embedder, jrnl)

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.ProfileResource(), resourceHandler.HandleProfile)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// noop is the default cleanup when the store never opened.
func noop() {}

// registerTools registers every store-backed MCP tool.
func registerTools(s *server.MCPServer, store *memory.Store, classifier *triage.Classifier, embedder embedding.Embedder, jrnl journal.Store) {
	// --- Facts ---
	storeFact := memtools.NewStoreFactTool(store, classifier, jrnl)
	s.AddTool(storeFact.Definition(), storeFact.Handle)

	storeFacts := memtools.NewStoreFactsTool(store, classifier, jrnl)
	s.AddTool(storeFacts.Definition(), storeFacts.Handle)

	searchFacts := memtools.NewSearchFactsTool(store)
	s.AddTool(searchFacts.Definition(), searchFacts.Handle)

	listFacts := memtools.NewListFactsTool(store)
	s.AddTool(listFacts.Definition(), listFacts.Handle)

	deleteFact := memtools.NewDeleteFactTool(store)
	s.AddTool(deleteFact.Definition(), deleteFact.Handle)

	// --- Events ---
	storeEvent := memtools.NewStoreEventTool(store)
	s.AddTool(storeEvent.Definition(), storeEvent.Handle)

	searchEvents := memtools.NewSearchEventsTool(store)
	s.AddTool(searchEvents.Definition(), searchEvents.Handle)

	listEvents := memtools.NewListEventsTool(store)
	s.AddTool(listEvents.Definition(), listEvents.Handle)

	deleteEvent := memtools.NewDeleteEventTool(store)
	s.AddTool(deleteEvent.Definition(), deleteEvent.Handle)

	// --- Chunks ---
	storeChunk := memtools.NewStoreChunkTool(store, embedder)
	s.AddTool(storeChunk.Definition(), storeChunk.Handle)

	searchChunks := memtools.NewSearchChunksTool(store)
	s.AddTool(searchChunks.Definition(), searchChunks.Handle)

	listChunks := memtools.NewListChunksTool(store)
	s.AddTool(listChunks.Definition(), listChunks.Handle)

	deleteChunk := memtools.NewDeleteChunkTool(store)
	s.AddTool(deleteChunk.Definition(), deleteChunk.Handle)

	// --- Nuggets ---
	storeNugget := memtools.NewStoreNuggetTool(store)
	s.AddTool(storeNugget.Definition(), storeNugget.Handle)

	greetingNuggets := memtools.NewGreetingNuggetsTool(store)
	s.AddTool(greetingNuggets.Definition(), greetingNuggets.Handle)

	searchNuggets := memtools.NewSearchNuggetsTool(store)
	s.AddTool(searchNuggets.Definition(), searchNuggets.Handle)

	touchNugget := memtools.NewTouchNuggetTool(store)
	s.AddTool(touchNugget.Definition(), touchNugget.Handle)

	listNuggets := memtools.NewListNuggetsTool(store)
	s.AddTool(listNuggets.Definition(), listNuggets.Handle)

	deleteNugget := memtools.NewDeleteNuggetTool(store)
	s.AddTool(deleteNugget.Definition(), deleteNugget.Handle)

	// --- Profiles ---
	storeProfile := memtools.NewStoreProfileTool(store)
	s.AddTool(storeProfile.Definition(), storeProfile.Handle)

	getProfile := memtools.NewGetProfileTool(store)
	s.AddTool(getProfile.Definition(), getProfile.Handle)

	listProfiles := memtools.NewListProfilesTool(store)
	s.AddTool(listProfiles.Definition(), listProfiles.Handle)

	searchProfiles := memtools.NewSearchProfilesTool(store)
	s.AddTool(searchProfiles.Definition(), searchProfiles.Handle)

	deleteProfile := memtools.NewDeleteProfileTool(store)
	s.AddTool(deleteProfile.Definition(), deleteProfile.Handle)

	// --- Statistics ---
	statsTool := memtools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the memory server effectively.
func serverInstructions() string {
	return `You have access to mnemo, a persistent memory server for a personal assistant.
Memory survives between conversations — use it to know the user better over time.

## SESSION OPENING

At the start of every conversation:
1. Call memory_get_profile to load who the user is
2. Call memory_greeting_nuggets for the context worth leading with
3. Greet naturally — weave the nuggets in, never recite them as a list

## WHAT GOES WHERE

- memory_store_fact / memory_store_facts: durable claims as subject-predicate-object
  triples — (user, likes, hiking), (user, lives_in, Lisbon), (Maria, is, user's sister).
  The engine resolves conflicts: duplicates are skipped, single-valued attributes
  (name_is, lives_in, favorite_*) replace in place, contradictions (likes -> hates)
  supersede the old fact. Never pre-check for duplicates; just store.
- memory_store_event: dated occurrences — appointments, trips, milestones.
- memory_store_chunk: verbatim conversation or document excerpts worth
  retrieving later by full-text search.
- memory_store_nugget: short, pre-composed summaries worth proactively
  surfacing — "Prefers morning meetings". Tag greeting-worthy ones with
  identity, preference, active_project, or routine, sensitivity low.
- memory_store_profile: identity cards for the user and the people in
  their life (kind=person, with relationship and aliases).

## SENSITIVITY

Rate every write: public, personal (default), or secret. Secret entities are
stored but never surface in any search. When unsure, call memory_classify
for a suggestion — it is advisory, you decide.

## RETRIEVAL

- memory_search_facts / memory_search_events: keyword lookup of claims and dates
- memory_search_chunks: full-text search over stored excerpts
- memory_search_nuggets: topic-relevant nuggets for the current conversation
- memory_search_profiles: find a person's card when the user mentions them
- memory_list_*: paginated browsing with substring filters
- memory_stats: what the memory currently holds

Search BEFORE asking the user to repeat themselves. If you surface a nugget
outside a greeting, call memory_touch_nugget so its recency stays honest.

## HYGIENE

- Store facts as you learn them, in small batches, not at session end
- Forget with memory_delete_* when the user says something no longer holds;
  corrections only need a new memory_store_fact — replacement is automatic
- Offer the memory-review prompt when the user wonders what you know about them`
}

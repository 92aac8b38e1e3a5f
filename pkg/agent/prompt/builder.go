// Package prompt assembles the (system, messages) pair an agent sends to the
// model: agent instructions, a runtime preamble, a windowed conversation
// history, an optional contract digest, and the current user message, all
// held under the input token budget.
package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/llm"
	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/risk"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

const (
	// digestMaxChars caps the contract digest before budget trimming.
	digestMaxChars = 2000

	// digestTopClauses is how many highest-risk clauses the digest shows.
	digestTopClauses = 5

	// excerptMaxChars caps each clause excerpt inside the digest.
	excerptMaxChars = 200
)

// Builder produces model inputs for agent turns.
type Builder struct {
	store        store.Store
	estimator    TokenEstimator
	historyPairs int
	budgetTokens int
}

// NewBuilder creates a Builder from the runtime limits.
func NewBuilder(s store.Store, rt config.RuntimeConfig) *Builder {
	return &Builder{
		store:        s,
		estimator:    NewEstimator(),
		historyPairs: rt.HistoryWindowPairs,
		budgetTokens: int(float64(rt.ContextWindowTokens) * rt.ContextTokenBudgetFraction),
	}
}

// Input describes one agent turn to build a prompt for.
type Input struct {
	SessionID        string
	AgentName        string
	Instructions     string
	UserMessage      string
	ActiveContractID string

	// Now overrides the preamble date; zero means time.Now.
	Now time.Time
}

// Build assembles the system block and message list. The current user message
// is always the final message; if it was already persisted it is not
// duplicated from history.
func (b *Builder) Build(ctx context.Context, in Input) (string, []llm.Message, error) {
	history, truncatedNote, err := b.loadHistory(ctx, in)
	if err != nil {
		return "", nil, err
	}

	digest := ""
	if in.ActiveContractID != "" {
		digest, err = b.contractDigest(ctx, in.ActiveContractID)
		if err != nil {
			return "", nil, err
		}
	}

	system := assembleSystem(in, truncatedNote, digest)
	userMsg := llm.Message{Role: llm.RoleUser, Content: in.UserMessage}

	// Budget pass: drop history pairs oldest-first, then shrink the digest.
	for b.overBudget(system, history, userMsg) && len(history) > 0 {
		drop := 1
		if len(history) > 1 {
			drop = 2
		}
		history = history[drop:]
		truncatedNote = "Earlier conversation history was omitted to fit the context window."
		system = assembleSystem(in, truncatedNote, digest)
	}
	for b.overBudget(system, history, userMsg) && digest != "" {
		digest = shrink(digest, len(digest)/2)
		system = assembleSystem(in, truncatedNote, digest)
	}

	return system, append(history, userMsg), nil
}

func (b *Builder) overBudget(system string, history []llm.Message, userMsg llm.Message) bool {
	total := b.estimator.Count(system) + b.estimator.Count(userMsg.Content)
	for _, m := range history {
		total += b.estimator.Count(m.Content) + 4
	}
	return total > b.budgetTokens
}

// loadHistory returns the last K message pairs, oldest first, and a note when
// older history exists beyond the window.
func (b *Builder) loadHistory(ctx context.Context, in Input) ([]llm.Message, string, error) {
	if in.SessionID == "" {
		return nil, "", nil
	}

	limit := 2 * b.historyPairs
	msgs, err := b.store.ListMessages(ctx, in.SessionID, limit+1, "")
	if err != nil {
		return nil, "", fmt.Errorf("failed to load session history: %w", err)
	}

	// The current user message is persisted before the turn runs; keep it
	// out of history so it appears exactly once, at the end.
	if n := len(msgs); n > 0 && msgs[n-1].Role == models.RoleUser && msgs[n-1].Content == in.UserMessage {
		msgs = msgs[:n-1]
	}

	note := ""
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
		note = "This conversation is longer than the visible window; earlier messages were omitted."
	}

	history := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}
	return history, note, nil
}

// contractDigest synthesizes the active contract into a capped paragraph:
// identity, parties, status, and the highest-risk clauses.
func (b *Builder) contractDigest(ctx context.Context, contractID string) (string, error) {
	contract, err := b.store.GetContract(ctx, contractID)
	if err != nil {
		return "", fmt.Errorf("failed to load active contract: %w", err)
	}
	clauses, err := b.store.ListClauses(ctx, contractID)
	if err != nil {
		return "", fmt.Errorf("failed to load contract clauses: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active contract: %q", contract.Title)
	if contract.ContractType != "" {
		fmt.Fprintf(&sb, " (%s)", contract.ContractType)
	}
	fmt.Fprintf(&sb, ", id %s, status %s.", contract.ID, contract.Status)
	if names := models.PartyNames(contract.Parties); len(names) > 0 {
		fmt.Fprintf(&sb, " Parties: %s.", strings.Join(names, ", "))
	}
	if contract.OverallRiskScore != nil {
		fmt.Fprintf(&sb, " Overall risk score %.0f (%s).",
			*contract.OverallRiskScore, risk.BandFor(*contract.OverallRiskScore))
	}
	if contract.ComplianceStatus != models.ComplianceUnknown {
		fmt.Fprintf(&sb, " Compliance status: %s.", contract.ComplianceStatus)
	}

	if len(clauses) > 0 {
		fmt.Fprintf(&sb, " %d clauses extracted.", len(clauses))
		top := topRiskClauses(clauses, digestTopClauses)
		if len(top) > 0 {
			sb.WriteString(" Highest-risk clauses:")
			for _, cl := range top {
				score := "unscored"
				if cl.RiskScore != nil {
					score = fmt.Sprintf("%.0f", *cl.RiskScore)
				}
				fmt.Fprintf(&sb, "\n- %s (risk %s): %s", cl.Type, score, shrink(cl.Text, excerptMaxChars))
			}
		}
	}

	return shrink(sb.String(), digestMaxChars), nil
}

// topRiskClauses returns up to n clauses ordered by risk score descending.
// Unscored clauses sort last, in document order.
func topRiskClauses(clauses []*models.Clause, n int) []*models.Clause {
	sorted := append([]*models.Clause(nil), clauses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].RiskScore, sorted[j].RiskScore
		switch {
		case si != nil && sj != nil:
			return *si > *sj
		case si != nil:
			return true
		default:
			return false
		}
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func assembleSystem(in Input, truncatedNote, digest string) string {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	parts := []string{
		strings.TrimSpace(in.Instructions),
		fmt.Sprintf("You are running as the %s agent inside LexMind, an AI legal document analysis system. Current date (UTC): %s.",
			in.AgentName, now.UTC().Format("2006-01-02")),
	}
	if truncatedNote != "" {
		parts = append(parts, truncatedNote)
	}
	if digest != "" {
		parts = append(parts, digest)
	}
	return strings.Join(parts, "\n\n")
}

// shrink truncates s to at most max characters, marking the cut. Rune-aware
// so clause excerpts and digests stay valid UTF-8.
func shrink(s string, max int) string {
	return models.TruncateChars(s, max)
}

package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

func (s *Server) handleListAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.catalog.List()})
}

// AgentStats aggregates one agent's activity within a session, computed from
// its thinking logs.
type AgentStats struct {
	Agent     string `json:"agent"`
	Runs      int    `json:"runs"`
	ToolCalls int    `json:"tool_calls"`
	Errors    int    `json:"errors"`
	AvgRunMs  int    `json:"avg_run_ms"`
}

// handleAgentStats summarizes per-agent activity for one session.
func (s *Server) handleAgentStats(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "session_id query parameter is required")
		return
	}
	if _, err := s.store.GetSession(c.Request.Context(), sessionID); err != nil {
		writeStoreError(c, err, "session not found")
		return
	}

	logs, err := s.store.ListThinkingLogs(c.Request.Context(), sessionID, "")
	if err != nil {
		writeStoreError(c, err, "")
		return
	}

	byAgent := make(map[string]*AgentStats)
	outputMs := make(map[string][]int)
	for _, log := range logs {
		if log.AgentName == "" {
			continue
		}
		st, ok := byAgent[log.AgentName]
		if !ok {
			st = &AgentStats{Agent: log.AgentName}
			byAgent[log.AgentName] = st
		}
		switch log.Stage {
		case models.StageAgentStart:
			st.Runs++
		case models.StageToolCall:
			st.ToolCalls++
		case models.StageError:
			st.Errors++
		case models.StageAgentOutput:
			outputMs[log.AgentName] = append(outputMs[log.AgentName], log.DurationMs)
		}
	}

	stats := make([]*AgentStats, 0, len(byAgent))
	for name, st := range byAgent {
		if ms := outputMs[name]; len(ms) > 0 {
			total := 0
			for _, v := range ms {
				total += v
			}
			st.AvgRunMs = total / len(ms)
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Agent < stats[j].Agent })

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"agents":     stats,
	})
}

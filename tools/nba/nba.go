// Package nba provides NBA data lookup tools backed by a relational store.
// The LLM composes five functions — schedule, scores, team stats, defensive
// ratings, blowout priors — to ground its analysis in stored game data.
package nba

import (
	"context"
	"encoding/json"
	"time"

	courtside "github.com/courtsideai/courtside"
)

const defaultRatingsLimit = 10

// Tool provides NBA data lookup functions. The store is resolved per request
// from the context, so one Tool value serves all requests.
type Tool struct{}

// New creates an NBA lookup tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Definitions() []courtside.ToolDefinition {
	return []courtside.ToolDefinition{
		{
			Name:        "get_schedule",
			Description: "Get NBA games scheduled between two dates, optionally filtered to one team. Returns game IDs, dates, matchups, and status. Use this to find upcoming or past games.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team": {
						"type": "string",
						"description": "Team name to filter by (omit for all teams)"
					},
					"from": {
						"type": "string",
						"description": "Start date, YYYY-MM-DD (default today)"
					},
					"to": {
						"type": "string",
						"description": "End date inclusive, YYYY-MM-DD (default same as from)"
					}
				}
			}`),
		},
		{
			Name:        "get_scores",
			Description: "Get final scores for NBA games on a specific date. Only completed games are returned.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"date": {
						"type": "string",
						"description": "Game date, YYYY-MM-DD (default today)"
					}
				}
			}`),
		},
		{
			Name:        "get_team_stats",
			Description: "Get one team's season-to-date record and efficiency line: wins, losses, offensive/defensive/net rating, and pace.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team": {
						"type": "string",
						"description": "Team name"
					},
					"season": {
						"type": "string",
						"description": "Season label, e.g. 2025-26"
					}
				},
				"required": ["team", "season"]
			}`),
		},
		{
			Name:        "get_defensive_ratings",
			Description: "Get the league's best defenses for a season, ordered by defensive rating (lower is better). Use to compare defensive strength across teams.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"season": {
						"type": "string",
						"description": "Season label, e.g. 2025-26"
					},
					"limit": {
						"type": "integer",
						"description": "Max teams to return (default 10)"
					}
				},
				"required": ["season"]
			}`),
		},
		{
			Name:        "get_blowout_priors",
			Description: "Get a team's historical blowout tendencies: blowout wins/losses and spread cover rate per season, most recent first. Use for margin-of-victory context.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team": {
						"type": "string",
						"description": "Team name"
					},
					"season": {
						"type": "string",
						"description": "Season label to filter by (omit for all seasons)"
					}
				},
				"required": ["team"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (courtside.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return courtside.ToolResult{}, err
	}
	req, ok := courtside.RequestFromContext(ctx)
	if !ok || req.Store == nil {
		return courtside.ToolResult{Success: false, Error: "no data store configured"}, nil
	}

	switch name {
	case "get_schedule":
		return getSchedule(ctx, req.Store, args)
	case "get_scores":
		return getScores(ctx, req.Store, args)
	case "get_team_stats":
		return getTeamStats(ctx, req.Store, args)
	case "get_defensive_ratings":
		return getDefensiveRatings(ctx, req.Store, args)
	case "get_blowout_priors":
		return getBlowoutPriors(ctx, req.Store, args)
	default:
		return courtside.ToolResult{Success: false, Error: "unknown nba tool: " + name}, nil
	}
}

// --- get_schedule ---

type scheduleArgs struct {
	Team string `json:"team"`
	From string `json:"from"`
	To   string `json:"to"`
}

func getSchedule(ctx context.Context, store courtside.Store, args json.RawMessage) (courtside.ToolResult, error) {
	var a scheduleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return courtside.ToolResult{Success: false, Error: "invalid args: " + err.Error()}, nil
	}
	if a.From == "" {
		a.From = time.Now().Format("2006-01-02")
	}
	if a.To == "" {
		a.To = a.From
	}

	games, err := store.Schedule(ctx, a.Team, a.From, a.To)
	if err != nil {
		return courtside.ToolResult{}, err
	}
	return courtside.ToolResult{Success: true, Data: map[string]any{
		"games": gameMaps(games),
		"count": len(games),
		"from":  a.From,
		"to":    a.To,
	}}, nil
}

// --- get_scores ---

type scoresArgs struct {
	Date string `json:"date"`
}

func getScores(ctx context.Context, store courtside.Store, args json.RawMessage) (courtside.ToolResult, error) {
	var a scoresArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return courtside.ToolResult{Success: false, Error: "invalid args: " + err.Error()}, nil
	}
	if a.Date == "" {
		a.Date = time.Now().Format("2006-01-02")
	}

	games, err := store.Scores(ctx, a.Date)
	if err != nil {
		return courtside.ToolResult{}, err
	}
	return courtside.ToolResult{Success: true, Data: map[string]any{
		"games": gameMaps(games),
		"count": len(games),
		"date":  a.Date,
	}}, nil
}

// --- get_team_stats ---

type teamStatsArgs struct {
	Team   string `json:"team"`
	Season string `json:"season"`
}

func getTeamStats(ctx context.Context, store courtside.Store, args json.RawMessage) (courtside.ToolResult, error) {
	var a teamStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return courtside.ToolResult{Success: false, Error: "invalid args: " + err.Error()}, nil
	}
	if a.Team == "" || a.Season == "" {
		return courtside.ToolResult{Success: false, Error: "team and season are required"}, nil
	}

	st, err := store.TeamStats(ctx, a.Team, a.Season)
	if err != nil {
		return courtside.ToolResult{}, err
	}
	return courtside.ToolResult{Success: true, Data: statMap(st)}, nil
}

// --- get_defensive_ratings ---

type defensiveRatingsArgs struct {
	Season string `json:"season"`
	Limit  int    `json:"limit"`
}

func getDefensiveRatings(ctx context.Context, store courtside.Store, args json.RawMessage) (courtside.ToolResult, error) {
	var a defensiveRatingsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return courtside.ToolResult{Success: false, Error: "invalid args: " + err.Error()}, nil
	}
	if a.Season == "" {
		return courtside.ToolResult{Success: false, Error: "season is required"}, nil
	}
	if a.Limit <= 0 {
		a.Limit = defaultRatingsLimit
	}

	stats, err := store.DefensiveRatings(ctx, a.Season, a.Limit)
	if err != nil {
		return courtside.ToolResult{}, err
	}
	teams := make([]map[string]any, len(stats))
	for i, st := range stats {
		teams[i] = statMap(st)
		teams[i]["rank"] = i + 1
	}
	return courtside.ToolResult{Success: true, Data: map[string]any{
		"teams":  teams,
		"season": a.Season,
	}}, nil
}

// --- get_blowout_priors ---

type blowoutPriorsArgs struct {
	Team   string `json:"team"`
	Season string `json:"season"`
}

func getBlowoutPriors(ctx context.Context, store courtside.Store, args json.RawMessage) (courtside.ToolResult, error) {
	var a blowoutPriorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return courtside.ToolResult{Success: false, Error: "invalid args: " + err.Error()}, nil
	}
	if a.Team == "" {
		return courtside.ToolResult{Success: false, Error: "team is required"}, nil
	}

	priors, err := store.BlowoutPriors(ctx, a.Team, a.Season)
	if err != nil {
		return courtside.ToolResult{}, err
	}
	lines := make([]map[string]any, len(priors))
	for i, p := range priors {
		lines[i] = map[string]any{
			"season":         p.Season,
			"blowout_wins":   p.BlowoutWins,
			"blowout_losses": p.BlowoutLosses,
			"cover_rate":     p.CoverRate,
		}
	}
	return courtside.ToolResult{Success: true, Data: map[string]any{
		"team":   a.Team,
		"priors": lines,
	}}, nil
}

// --- helpers ---

func gameMaps(games []courtside.Game) []map[string]any {
	out := make([]map[string]any, len(games))
	for i, g := range games {
		m := map[string]any{
			"id":        g.ID,
			"date":      g.GameDate,
			"home_team": g.HomeTeam,
			"away_team": g.AwayTeam,
			"status":    g.Status,
		}
		if g.Status == "final" {
			m["home_score"] = g.HomeScore
			m["away_score"] = g.AwayScore
		}
		out[i] = m
	}
	return out
}

func statMap(st courtside.TeamStat) map[string]any {
	return map[string]any{
		"team":       st.Team,
		"season":     st.Season,
		"wins":       st.Wins,
		"losses":     st.Losses,
		"off_rating": st.OffRating,
		"def_rating": st.DefRating,
		"net_rating": st.NetRating,
		"pace":       st.Pace,
	}
}

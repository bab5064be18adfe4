package courtside

import "context"

// --- Domain types (database records) ---

// Game is one scheduled or completed NBA game.
type Game struct {
	ID        string `json:"id"`
	Season    string `json:"season"`
	GameDate  string `json:"game_date"` // YYYY-MM-DD
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status"` // "scheduled" or "final"
}

// TeamStat is a team's season-to-date aggregate line.
type TeamStat struct {
	Team      string  `json:"team"`
	Season    string  `json:"season"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	OffRating float64 `json:"off_rating"`
	DefRating float64 `json:"def_rating"`
	NetRating float64 `json:"net_rating"`
	Pace      float64 `json:"pace"`
}

// BlowoutPrior is a team's historical blowout/cover tendency line.
type BlowoutPrior struct {
	Team          string  `json:"team"`
	Season        string  `json:"season"`
	BlowoutWins   int     `json:"blowout_wins"`
	BlowoutLosses int     `json:"blowout_losses"`
	CoverRate     float64 `json:"cover_rate"`
}

// Store is the relational data-access handle behind the NBA tools. It is an
// external collaborator to the engine: handlers receive it via the Request
// bundle and the engine itself never touches it.
type Store interface {
	// Schedule returns games for a team between two dates (inclusive,
	// YYYY-MM-DD). An empty team matches all teams.
	Schedule(ctx context.Context, team, from, to string) ([]Game, error)
	// Scores returns final games on the given date.
	Scores(ctx context.Context, date string) ([]Game, error)
	// TeamStats returns one team's season aggregate line.
	TeamStats(ctx context.Context, team, season string) (TeamStat, error)
	// DefensiveRatings returns up to limit teams ordered by defensive
	// rating, best first.
	DefensiveRatings(ctx context.Context, season string, limit int) ([]TeamStat, error)
	// BlowoutPriors returns a team's historical blowout tendency lines,
	// most recent season first. An empty season matches all seasons.
	BlowoutPriors(ctx context.Context, team, season string) ([]BlowoutPrior, error)

	// Init creates the schema. Safe to call multiple times.
	Init(ctx context.Context) error
	// Close releases resources owned by the store.
	Close() error
}

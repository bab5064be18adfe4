// Package postgres implements courtside.Store using PostgreSQL.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtsideai/courtside"
)

// Store implements courtside.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ courtside.Store = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates all required tables. Safe to call multiple times.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			season TEXT NOT NULL,
			game_date TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_score INTEGER NOT NULL DEFAULT 0,
			away_score INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'scheduled'
		)`,
		`CREATE INDEX IF NOT EXISTS games_date_idx ON games(game_date)`,
		`CREATE INDEX IF NOT EXISTS games_home_idx ON games(home_team)`,
		`CREATE INDEX IF NOT EXISTS games_away_idx ON games(away_team)`,

		`CREATE TABLE IF NOT EXISTS team_stats (
			team TEXT NOT NULL,
			season TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			off_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			def_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			net_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			pace DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (team, season)
		)`,

		`CREATE TABLE IF NOT EXISTS blowout_priors (
			team TEXT NOT NULL,
			season TEXT NOT NULL,
			blowout_wins INTEGER NOT NULL DEFAULT 0,
			blowout_losses INTEGER NOT NULL DEFAULT 0,
			cover_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (team, season)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres init: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the caller owns the pool.
func (s *Store) Close() error { return nil }

// Schedule returns games for a team between two dates (inclusive).
// An empty team matches all teams.
func (s *Store) Schedule(ctx context.Context, team, from, to string) ([]courtside.Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, season, game_date, home_team, away_team, home_score, away_score, status
		 FROM games
		 WHERE game_date >= $1 AND game_date <= $2
		   AND ($3 = '' OR home_team = $3 OR away_team = $3)
		 ORDER BY game_date, id`,
		from, to, team)
	if err != nil {
		return nil, fmt.Errorf("postgres schedule: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// Scores returns final games on the given date.
func (s *Store) Scores(ctx context.Context, date string) ([]courtside.Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, season, game_date, home_team, away_team, home_score, away_score, status
		 FROM games
		 WHERE game_date = $1 AND status = 'final'
		 ORDER BY id`,
		date)
	if err != nil {
		return nil, fmt.Errorf("postgres scores: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// TeamStats returns one team's season aggregate line.
func (s *Store) TeamStats(ctx context.Context, team, season string) (courtside.TeamStat, error) {
	var st courtside.TeamStat
	err := s.pool.QueryRow(ctx,
		`SELECT team, season, wins, losses, off_rating, def_rating, net_rating, pace
		 FROM team_stats WHERE team = $1 AND season = $2`,
		team, season).Scan(
		&st.Team, &st.Season, &st.Wins, &st.Losses,
		&st.OffRating, &st.DefRating, &st.NetRating, &st.Pace)
	if errors.Is(err, pgx.ErrNoRows) {
		return courtside.TeamStat{}, fmt.Errorf("postgres team stats: no line for %s %s", team, season)
	}
	if err != nil {
		return courtside.TeamStat{}, fmt.Errorf("postgres team stats: %w", err)
	}
	return st, nil
}

// DefensiveRatings returns up to limit teams ordered by defensive rating,
// best (lowest) first.
func (s *Store) DefensiveRatings(ctx context.Context, season string, limit int) ([]courtside.TeamStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT team, season, wins, losses, off_rating, def_rating, net_rating, pace
		 FROM team_stats WHERE season = $1
		 ORDER BY def_rating ASC LIMIT $2`,
		season, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres defensive ratings: %w", err)
	}
	defer rows.Close()

	var stats []courtside.TeamStat
	for rows.Next() {
		var st courtside.TeamStat
		if err := rows.Scan(&st.Team, &st.Season, &st.Wins, &st.Losses,
			&st.OffRating, &st.DefRating, &st.NetRating, &st.Pace); err != nil {
			return nil, fmt.Errorf("postgres defensive ratings: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// BlowoutPriors returns a team's historical blowout tendency lines, most
// recent season first. An empty season matches all seasons.
func (s *Store) BlowoutPriors(ctx context.Context, team, season string) ([]courtside.BlowoutPrior, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT team, season, blowout_wins, blowout_losses, cover_rate
		 FROM blowout_priors
		 WHERE team = $1 AND ($2 = '' OR season = $2)
		 ORDER BY season DESC`,
		team, season)
	if err != nil {
		return nil, fmt.Errorf("postgres blowout priors: %w", err)
	}
	defer rows.Close()

	var priors []courtside.BlowoutPrior
	for rows.Next() {
		var p courtside.BlowoutPrior
		if err := rows.Scan(&p.Team, &p.Season, &p.BlowoutWins, &p.BlowoutLosses, &p.CoverRate); err != nil {
			return nil, fmt.Errorf("postgres blowout priors: %w", err)
		}
		priors = append(priors, p)
	}
	return priors, rows.Err()
}

// UpsertGame inserts or replaces one game row. Used by the data loader.
func (s *Store) UpsertGame(ctx context.Context, g courtside.Game) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, season, game_date, home_team, away_team, home_score, away_score, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   season = EXCLUDED.season, game_date = EXCLUDED.game_date,
		   home_team = EXCLUDED.home_team, away_team = EXCLUDED.away_team,
		   home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score,
		   status = EXCLUDED.status`,
		g.ID, g.Season, g.GameDate, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.Status)
	if err != nil {
		return fmt.Errorf("postgres upsert game: %w", err)
	}
	return nil
}

// UpsertTeamStat inserts or replaces one team season line.
func (s *Store) UpsertTeamStat(ctx context.Context, st courtside.TeamStat) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO team_stats (team, season, wins, losses, off_rating, def_rating, net_rating, pace)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (team, season) DO UPDATE SET
		   wins = EXCLUDED.wins, losses = EXCLUDED.losses,
		   off_rating = EXCLUDED.off_rating, def_rating = EXCLUDED.def_rating,
		   net_rating = EXCLUDED.net_rating, pace = EXCLUDED.pace`,
		st.Team, st.Season, st.Wins, st.Losses, st.OffRating, st.DefRating, st.NetRating, st.Pace)
	if err != nil {
		return fmt.Errorf("postgres upsert team stat: %w", err)
	}
	return nil
}

// UpsertBlowoutPrior inserts or replaces one blowout prior line.
func (s *Store) UpsertBlowoutPrior(ctx context.Context, p courtside.BlowoutPrior) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blowout_priors (team, season, blowout_wins, blowout_losses, cover_rate)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (team, season) DO UPDATE SET
		   blowout_wins = EXCLUDED.blowout_wins,
		   blowout_losses = EXCLUDED.blowout_losses,
		   cover_rate = EXCLUDED.cover_rate`,
		p.Team, p.Season, p.BlowoutWins, p.BlowoutLosses, p.CoverRate)
	if err != nil {
		return fmt.Errorf("postgres upsert blowout prior: %w", err)
	}
	return nil
}

// scanGames drains a games query into Game records.
func scanGames(rows pgx.Rows) ([]courtside.Game, error) {
	var games []courtside.Game
	for rows.Next() {
		var g courtside.Game
		if err := rows.Scan(&g.ID, &g.Season, &g.GameDate, &g.HomeTeam, &g.AwayTeam,
			&g.HomeScore, &g.AwayScore, &g.Status); err != nil {
			return nil, fmt.Errorf("postgres scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Package sqlite implements courtside.Store using pure-Go SQLite.
// Zero CGO required; suited to embedded runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtsideai/courtside"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. If not set, no logs
// are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements courtside.Store backed by a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ courtside.Store = (*Store)(nil)

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath.
// A single shared connection serializes all goroutines through one
// connection, eliminating SQLITE_BUSY errors from concurrent writers.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
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

		`CREATE TABLE IF NOT EXISTS team_stats (
			team TEXT NOT NULL,
			season TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			off_rating REAL NOT NULL DEFAULT 0,
			def_rating REAL NOT NULL DEFAULT 0,
			net_rating REAL NOT NULL DEFAULT 0,
			pace REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (team, season)
		)`,

		`CREATE TABLE IF NOT EXISTS blowout_priors (
			team TEXT NOT NULL,
			season TEXT NOT NULL,
			blowout_wins INTEGER NOT NULL DEFAULT 0,
			blowout_losses INTEGER NOT NULL DEFAULT 0,
			cover_rate REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (team, season)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}
	}
	s.logger.Debug("sqlite: init completed")
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Schedule returns games for a team between two dates (inclusive).
// An empty team matches all teams.
func (s *Store) Schedule(ctx context.Context, team, from, to string) ([]courtside.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, season, game_date, home_team, away_team, home_score, away_score, status
		 FROM games
		 WHERE game_date >= ? AND game_date <= ?
		   AND (? = '' OR home_team = ? OR away_team = ?)
		 ORDER BY game_date, id`,
		from, to, team, team, team)
	if err != nil {
		return nil, fmt.Errorf("sqlite schedule: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// Scores returns final games on the given date.
func (s *Store) Scores(ctx context.Context, date string) ([]courtside.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, season, game_date, home_team, away_team, home_score, away_score, status
		 FROM games
		 WHERE game_date = ? AND status = 'final'
		 ORDER BY id`,
		date)
	if err != nil {
		return nil, fmt.Errorf("sqlite scores: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// TeamStats returns one team's season aggregate line.
func (s *Store) TeamStats(ctx context.Context, team, season string) (courtside.TeamStat, error) {
	var st courtside.TeamStat
	err := s.db.QueryRowContext(ctx,
		`SELECT team, season, wins, losses, off_rating, def_rating, net_rating, pace
		 FROM team_stats WHERE team = ? AND season = ?`,
		team, season).Scan(
		&st.Team, &st.Season, &st.Wins, &st.Losses,
		&st.OffRating, &st.DefRating, &st.NetRating, &st.Pace)
	if errors.Is(err, sql.ErrNoRows) {
		return courtside.TeamStat{}, fmt.Errorf("sqlite team stats: no line for %s %s", team, season)
	}
	if err != nil {
		return courtside.TeamStat{}, fmt.Errorf("sqlite team stats: %w", err)
	}
	return st, nil
}

// DefensiveRatings returns up to limit teams ordered by defensive rating,
// best (lowest) first.
func (s *Store) DefensiveRatings(ctx context.Context, season string, limit int) ([]courtside.TeamStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team, season, wins, losses, off_rating, def_rating, net_rating, pace
		 FROM team_stats WHERE season = ?
		 ORDER BY def_rating ASC LIMIT ?`,
		season, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite defensive ratings: %w", err)
	}
	defer rows.Close()

	var stats []courtside.TeamStat
	for rows.Next() {
		var st courtside.TeamStat
		if err := rows.Scan(&st.Team, &st.Season, &st.Wins, &st.Losses,
			&st.OffRating, &st.DefRating, &st.NetRating, &st.Pace); err != nil {
			return nil, fmt.Errorf("sqlite defensive ratings: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// BlowoutPriors returns a team's historical blowout tendency lines, most
// recent season first. An empty season matches all seasons.
func (s *Store) BlowoutPriors(ctx context.Context, team, season string) ([]courtside.BlowoutPrior, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team, season, blowout_wins, blowout_losses, cover_rate
		 FROM blowout_priors
		 WHERE team = ? AND (? = '' OR season = ?)
		 ORDER BY season DESC`,
		team, season, season)
	if err != nil {
		return nil, fmt.Errorf("sqlite blowout priors: %w", err)
	}
	defer rows.Close()

	var priors []courtside.BlowoutPrior
	for rows.Next() {
		var p courtside.BlowoutPrior
		if err := rows.Scan(&p.Team, &p.Season, &p.BlowoutWins, &p.BlowoutLosses, &p.CoverRate); err != nil {
			return nil, fmt.Errorf("sqlite blowout priors: %w", err)
		}
		priors = append(priors, p)
	}
	return priors, rows.Err()
}

// UpsertGame inserts or replaces one game row. Used by the data loader.
func (s *Store) UpsertGame(ctx context.Context, g courtside.Game) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO games (id, season, game_date, home_team, away_team, home_score, away_score, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Season, g.GameDate, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.Status)
	if err != nil {
		return fmt.Errorf("sqlite upsert game: %w", err)
	}
	return nil
}

// UpsertTeamStat inserts or replaces one team season line.
func (s *Store) UpsertTeamStat(ctx context.Context, st courtside.TeamStat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO team_stats (team, season, wins, losses, off_rating, def_rating, net_rating, pace)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Team, st.Season, st.Wins, st.Losses, st.OffRating, st.DefRating, st.NetRating, st.Pace)
	if err != nil {
		return fmt.Errorf("sqlite upsert team stat: %w", err)
	}
	return nil
}

// UpsertBlowoutPrior inserts or replaces one blowout prior line.
func (s *Store) UpsertBlowoutPrior(ctx context.Context, p courtside.BlowoutPrior) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO blowout_priors (team, season, blowout_wins, blowout_losses, cover_rate)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Team, p.Season, p.BlowoutWins, p.BlowoutLosses, p.CoverRate)
	if err != nil {
		return fmt.Errorf("sqlite upsert blowout prior: %w", err)
	}
	return nil
}

// scanGames drains a games query into Game records.
func scanGames(rows *sql.Rows) ([]courtside.Game, error) {
	var games []courtside.Game
	for rows.Next() {
		var g courtside.Game
		if err := rows.Scan(&g.ID, &g.Season, &g.GameDate, &g.HomeTeam, &g.AwayTeam,
			&g.HomeScore, &g.AwayScore, &g.Status); err != nil {
			return nil, fmt.Errorf("sqlite scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

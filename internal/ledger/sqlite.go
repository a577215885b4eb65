package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MatchingPool/internal/model"
)

// SQLiteLedger persists pool history to a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteLedger opens (or creates) the SQLite database and runs migrations.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite ledger opened: %s", dbPath)
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transfer_intents (
			intent_id    TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			kind         TEXT NOT NULL,
			amount       INTEGER NOT NULL,
			from_account TEXT NOT NULL,
			to_account   TEXT NOT NULL,
			seq          INTEGER NOT NULL,
			settled      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intents_settled ON transfer_intents(settled, timestamp)`,

		`CREATE TABLE IF NOT EXISTS match_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			campaign_id     INTEGER NOT NULL,
			caller          TEXT NOT NULL,
			donation_amount INTEGER NOT NULL,
			match_amount    INTEGER NOT NULL,
			ratio           INTEGER NOT NULL,
			pool_before     INTEGER NOT NULL,
			pool_after      INTEGER NOT NULL,
			total_matched   INTEGER NOT NULL,
			seq             INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_campaign ON match_events(campaign_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS campaign_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			campaign_id INTEGER NOT NULL,
			name        TEXT NOT NULL,
			creator     TEXT NOT NULL,
			pool_type   TEXT NOT NULL,
			currency    TEXT NOT NULL,
			location    TEXT NOT NULL,
			min_deposit INTEGER NOT NULL,
			max_deposit INTEGER NOT NULL,
			admin_fee   INTEGER NOT NULL,
			seq         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaign_ts ON campaign_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS param_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			ratio     INTEGER NOT NULL,
			cap       INTEGER NOT NULL,
			admin_fee INTEGER NOT NULL,
			updater   TEXT NOT NULL,
			seq       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_param_ts ON param_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (l *SQLiteLedger) RecordIntent(rec *IntentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	settled := 0
	if rec.Settled {
		settled = 1
	}
	_, err := l.db.Exec(`INSERT INTO transfer_intents
		(intent_id, timestamp, kind, amount, from_account, to_account, seq, settled)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.Intent.ID, rec.Intent.CreatedAt.Unix(), string(rec.Intent.Kind),
		rec.Intent.Amount, string(rec.Intent.From), string(rec.Intent.To),
		rec.Seq, settled,
	)
	return err
}

func (l *SQLiteLedger) RecordMatch(evt *MatchEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`INSERT INTO match_events
		(timestamp, campaign_id, caller, donation_amount, match_amount, ratio,
		 pool_before, pool_after, total_matched, seq)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CampaignID, string(evt.Caller),
		evt.DonationAmount, evt.MatchAmount, evt.Ratio,
		evt.PoolBefore, evt.PoolAfter, evt.TotalMatched, evt.Seq,
	)
	return err
}

func (l *SQLiteLedger) RecordCampaign(evt *CampaignEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`INSERT INTO campaign_events
		(timestamp, campaign_id, name, creator, pool_type, currency, location,
		 min_deposit, max_deposit, admin_fee, seq)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CampaignID, evt.Name, string(evt.Creator),
		string(evt.PoolType), string(evt.Currency), evt.Location,
		evt.MinDeposit, evt.MaxDeposit, evt.AdminFee, evt.Seq,
	)
	return err
}

func (l *SQLiteLedger) RecordParamUpdate(evt *ParamEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`INSERT INTO param_events
		(timestamp, ratio, cap, admin_fee, updater, seq)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Ratio, evt.Cap, evt.AdminFee,
		string(evt.Updater), evt.Seq,
	)
	return err
}

func (l *SQLiteLedger) UnsettledIntents(limit int) ([]IntentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`SELECT intent_id, timestamp, kind, amount, from_account, to_account, seq
		FROM transfer_intents WHERE settled = 0 ORDER BY timestamp LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []IntentRecord
	for rows.Next() {
		var (
			rec  IntentRecord
			ts   int64
			kind string
			from string
			to   string
		)
		if err := rows.Scan(&rec.Intent.ID, &ts, &kind, &rec.Intent.Amount, &from, &to, &rec.Seq); err != nil {
			return nil, err
		}
		rec.Intent.Kind = model.IntentKind(kind)
		rec.Intent.From = model.Principal(from)
		rec.Intent.To = model.Principal(to)
		rec.Intent.CreatedAt = time.Unix(ts, 0)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (l *SQLiteLedger) MarkSettled(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := l.db.Exec(
		`UPDATE transfer_intents SET settled = 1 WHERE intent_id IN (`+placeholders+`)`, args...)
	return err
}

func (l *SQLiteLedger) Close() error {
	log.Println("[INFO] closing sqlite ledger")
	return l.db.Close()
}

package telemetry

import (
	"database/sql"

	"github.com/ccarrizosa/EspSensor/internal/errors"
)

// initSchema creates the wake-cycle log table when missing.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS cycles (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp INTEGER NOT NULL,
            outcome TEXT NOT NULL,
            attempts INTEGER,
            sleep_us INTEGER,
            measured INTEGER,
            channel_0 INTEGER,
            channel_1 INTEGER,
            channel_2 INTEGER,
            channel_3 INTEGER,
            version TEXT
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}

// Package database opens the gateway's local SQLite file and applies its
// schema migrations.
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// The file is created with mode 0600. Migrations only add: new columns are
// nullable or defaulted, and each .up.sql has a .down.sql for Rollback.
package database

// Copyright (C) 2018 Finding Ray.
// All rights reserved.
// Use of this source code is governed by a GPLv3-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/finding-ray/antikythera/pkg/log"
)

const Version uint = 1

//go:embed migrations/*
var migrationFiles embed.FS

func checkDBVersion(backend string, db *sql.DB) {
	var m *migrate.Migrate

	if backend == "sqlite3" {
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			log.Fatal(err)
		}
		d, err := iofs.New(migrationFiles, "migrations/sqlite3")
		if err != nil {
			log.Fatal(err)
		}

		m, err = migrate.NewWithInstance("iofs", d, "sqlite3", driver)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Fatalf("unsupported database backend: %s", backend)
	}

	v, dirty, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			log.Warn("Legacy database without version or missing database file!")
			return
		}
		log.Fatal(err)
	}

	if v < Version {
		log.Fatalf("Unsupported database version %d, need %d.\nPlease backup your database file and run antikythera -migrate-db", v, Version)
	}
	if v > Version {
		log.Fatalf("Unsupported database version %d, need %d.\nPlease refer to documentation how to downgrade db with external migrate tool!", v, Version)
	}
	if dirty {
		log.Fatalf("Database dirty at version %d, resolve manually before continuing", v)
	}
}

// MigrateDB brings the schema up to the supported version. The schema
// statements are idempotent, so running against a database created by an
// older release is safe.
func MigrateDB(backend string, db string) error {
	var m *migrate.Migrate

	if backend == "sqlite3" {
		d, err := iofs.New(migrationFiles, "migrations/sqlite3")
		if err != nil {
			return err
		}

		m, err = migrate.NewWithSourceInstance("iofs", d, fmt.Sprintf("sqlite3://%s?_busy_timeout=60000", db))
		if err != nil {
			return err
		}
	} else {
		return fmt.Errorf("unsupported database backend: %s", backend)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	m.Close()
	return nil
}

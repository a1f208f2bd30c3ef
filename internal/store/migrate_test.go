// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolarMC-Dev/DataLoader-sub000/pkg/errutil"
)

func TestParseDriver(t *testing.T) {
	tests := []struct {
		name    string
		want    Driver
		wantErr bool
	}{
		{"postgres", DriverPostgres, false},
		{"MySQL", DriverMySQL, false},
		{"sqlite", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDriver(tt.name)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "UNKNOWN_DRIVER")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriver_MigrateURL(t *testing.T) {
	tests := []struct {
		driver Driver
		in     string
		want   string
	}{
		{DriverPostgres, "postgres://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{DriverPostgres, "postgresql://u:p@localhost/db", "pgx5://u:p@localhost/db"},
		{DriverPostgres, "pgx5://u:p@localhost/db", "pgx5://u:p@localhost/db"},
		{DriverMySQL, "u:p@tcp(localhost:3306)/db", "mysql://u:p@tcp(localhost:3306)/db"},
		{DriverMySQL, "mysql://u:p@tcp(localhost:3306)/db", "mysql://u:p@tcp(localhost:3306)/db"},
	}
	for _, tt := range tests {
		t.Run(string(tt.driver)+" "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.driver.migrateURL(tt.in))
		})
	}
}

func TestNewMigrator_UnknownDriver(t *testing.T) {
	_, err := NewMigrator("sqlite", "file:test.db")
	errutil.AssertErrorCode(t, err, "UNKNOWN_DRIVER")
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator(DriverPostgres, "invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

// A postgresql:// URL must reach the pgx5 driver; the failure is then a
// connection error rather than an unknown driver.
func TestNewMigrator_PostgresqlScheme(t *testing.T) {
	_, err := NewMigrator(DriverPostgres, "postgresql://localhost:1/testdb?connect_timeout=1")
	require.Error(t, err, "should fail due to connection, not URL scheme")
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(_ int) error            { return m.forceErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func TestMigrator_Up_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Up()
	require.NoError(t, err)
}

func TestMigrator_Up_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}
	err := m.Up()
	require.NoError(t, err, "ErrNoChange should be treated as success")
}

func TestMigrator_Up_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: errors.New("database locked")}}
	err := m.Up()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
}

func TestMigrator_Down_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Down()
	require.NoError(t, err)
}

func TestMigrator_Down_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}
	err := m.Down()
	require.NoError(t, err)
}

func TestMigrator_Down_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{downErr: errors.New("constraint violation")}}
	err := m.Down()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Steps_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Steps(3)
	require.NoError(t, err)
}

func TestMigrator_Steps_NoChange(t *testing.T) {
	m := &Migrator{m: &mockMigrate{stepsErr: migrate.ErrNoChange}}
	err := m.Steps(-1)
	require.NoError(t, err)
}

func TestMigrator_Steps_ZeroIsNoOp(t *testing.T) {
	m := &Migrator{m: &mockMigrate{stepsErr: migrate.ErrNoChange}}
	err := m.Steps(0)
	require.NoError(t, err, "Steps(0) should be a no-op returning nil")
}

func TestMigrator_Steps_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{stepsErr: errors.New("invalid step")}}
	err := m.Steps(5)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
}

func TestMigrator_Version_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionVal: 7, dirty: false}}
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(7), version)
	assert.False(t, dirty)
}

func TestMigrator_Version_Dirty(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionVal: 5, dirty: true}}
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(5), version)
	assert.True(t, dirty)
}

func TestMigrator_Version_NilVersion(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	version, dirty, err := m.Version()
	require.NoError(t, err, "ErrNilVersion should return 0, false, nil")
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestMigrator_Version_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}
	_, _, err := m.Version()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Force_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Force(5)
	require.NoError(t, err)
}

func TestMigrator_Force_Error(t *testing.T) {
	m := &Migrator{m: &mockMigrate{forceErr: errors.New("invalid version")}}
	err := m.Force(5)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
}

func TestMigrator_Force_NegativeVersionRejected(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Force(-1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrator_Close_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Close()
	require.NoError(t, err)
}

func TestMigrator_Close_SourceError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{closeSourceErr: errors.New("source close failed")}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "source")
}

func TestMigrator_Close_DatabaseError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{closeDbErr: errors.New("db close failed")}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "database")
}

func TestMigrator_Close_BothErrors(t *testing.T) {
	m := &Migrator{m: &mockMigrate{
		closeSourceErr: errors.New("source close failed"),
		closeDbErr:     errors.New("db close failed"),
	}}
	err := m.Close()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "both")
	assert.Contains(t, err.Error(), "source close failed")
	assert.Contains(t, err.Error(), "db close failed")
}

func TestMigrator_PendingMigrations(t *testing.T) {
	for _, driver := range []Driver{DriverPostgres, DriverMySQL} {
		t.Run(string(driver), func(t *testing.T) {
			tests := []struct {
				name string
				mock *mockMigrate
				want []uint
			}{
				{"fresh database", &mockMigrate{versionErr: migrate.ErrNilVersion}, []uint{1, 2}},
				{"partially migrated", &mockMigrate{versionVal: 1}, []uint{2}},
				{"at latest", &mockMigrate{versionVal: 2}, nil},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					m := &Migrator{m: tt.mock, driver: driver}
					pending, err := m.PendingMigrations()
					require.NoError(t, err)
					assert.Equal(t, tt.want, pending)
				})
			}
		})
	}
}

func TestMigrator_PendingMigrations_VersionError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}, driver: DriverPostgres}
	_, err := m.PendingMigrations()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "operation", "get pending migrations")
}

func TestMigrator_AppliedMigrations(t *testing.T) {
	tests := []struct {
		name string
		mock *mockMigrate
		want []uint
	}{
		{"fresh database", &mockMigrate{versionErr: migrate.ErrNilVersion}, nil},
		{"partially migrated", &mockMigrate{versionVal: 1}, []uint{1}},
		{"at latest", &mockMigrate{versionVal: 2}, []uint{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: tt.mock, driver: DriverMySQL}
			applied, err := m.AppliedMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
		})
	}
}

func TestMigrator_AppliedMigrations_VersionError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}, driver: DriverMySQL}
	_, err := m.AppliedMigrations()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "operation", "get applied migrations")
}

// closedMock returns errors after Close, like golang-migrate does once its
// resources are released.
type closedMock struct {
	closed bool
}

var errMigratorClosed = errors.New("migrator is closed")

func (m *closedMock) err() error {
	if m.closed {
		return errMigratorClosed
	}
	return nil
}

func (m *closedMock) Up() error         { return m.err() }
func (m *closedMock) Down() error       { return m.err() }
func (m *closedMock) Steps(_ int) error { return m.err() }
func (m *closedMock) Force(_ int) error { return m.err() }

func (m *closedMock) Version() (uint, bool, error) {
	if err := m.err(); err != nil {
		return 0, false, err
	}
	return 1, false, nil
}

func (m *closedMock) Close() (error, error) {
	m.closed = true
	return nil, nil
}

func TestMigrator_MethodsAfterClose(t *testing.T) {
	tests := []struct {
		name   string
		method func(*Migrator) error
	}{
		{"Up", func(m *Migrator) error { return m.Up() }},
		{"Down", func(m *Migrator) error { return m.Down() }},
		{"Steps", func(m *Migrator) error { return m.Steps(1) }},
		{"Version", func(m *Migrator) error {
			_, _, err := m.Version()
			return err
		}},
		{"Force", func(m *Migrator) error { return m.Force(1) }},
		{"PendingMigrations", func(m *Migrator) error {
			_, err := m.PendingMigrations()
			return err
		}},
		{"AppliedMigrations", func(m *Migrator) error {
			_, err := m.AppliedMigrations()
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name+" after Close", func(t *testing.T) {
			migrator := &Migrator{m: &closedMock{}, driver: DriverPostgres}
			require.NoError(t, migrator.Close())
			assert.Error(t, tt.method(migrator))
		})
	}
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		driver   Driver
		version  uint
		expected string
	}{
		{DriverPostgres, 1, "000001_user_ids"},
		{DriverPostgres, 2, "000002_auth_passwords"},
		{DriverMySQL, 1, "000001_user_ids"},
		{DriverMySQL, 2, "000002_auth_passwords"},
		{DriverPostgres, 999, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_version_%d", tt.driver, tt.version), func(t *testing.T) {
			name, err := MigrationName(tt.driver, tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestAllMigrationVersions_ReturnsCopy(t *testing.T) {
	versions1, err := allMigrationVersions(DriverPostgres)
	require.NoError(t, err)
	require.NotEmpty(t, versions1)

	original := versions1[0]
	versions1[0] = 99999

	versions2, err := allMigrationVersions(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, original, versions2[0], "mutation should not affect cache")
}

func TestAllMigrationVersions_MatchAcrossDrivers(t *testing.T) {
	pg, err := allMigrationVersions(DriverPostgres)
	require.NoError(t, err)
	my, err := allMigrationVersions(DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, pg, my, "both drivers must share one version sequence")
}

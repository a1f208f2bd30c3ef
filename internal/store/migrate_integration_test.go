//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/store"
)

func startPostgres(ctx context.Context) string {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())
	return connStr
}

func startMySQL(ctx context.Context) string {
	container, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("test"),
		mysql.WithUsername("test"),
		mysql.WithPassword("test"),
	)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx)
	Expect(err).NotTo(HaveOccurred())
	return connStr
}

var _ = DescribeTable("Migrator full cycle",
	func(driver store.Driver, start func(context.Context) string) {
		ctx := context.Background()
		migrator, err := store.NewMigrator(driver, start(ctx))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1, 2}))

		Expect(migrator.Up()).To(Succeed())
		version, dirty, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		By("treating a repeated Up as a no-op")
		Expect(migrator.Up()).To(Succeed())

		By("stepping down and up one version")
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(migrator.Steps(1)).To(Succeed())

		By("rolling everything back")
		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		By("forcing a version without running migrations")
		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	},
	Entry("postgres", store.DriverPostgres, startPostgres),
	Entry("mysql", store.DriverMySQL, startMySQL),
)

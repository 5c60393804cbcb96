// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/postgres"
)

var _ = Describe("Postgres credential store", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		store     *postgres.Store
		engine    *credential.Engine
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("peyp_test"),
			tcpostgres.WithUsername("peyp"),
			tcpostgres.WithPassword("peyp"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := postgres.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		store, err = postgres.Open(ctx, connStr, 10*time.Second)
		Expect(err).NotTo(HaveOccurred())

		engine, err = credential.NewEngine(store)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if store != nil {
			store.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("resolves a registered identity", func() {
		_, err := engine.Register(ctx, "alice", "hunter2")
		Expect(err).NotTo(HaveOccurred())

		out, err := engine.Resolve(ctx, "alice", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Kind).To(Equal(credential.KindSuccess))
	})

	It("offers alternatives in byte order", func() {
		_, err := engine.Register(ctx, "bob", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Register(ctx, "Zed", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Register(ctx, "carol", "carolpass")
		Expect(err).NotTo(HaveOccurred())

		out, err := engine.Resolve(ctx, "carol", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Kind).To(Equal(credential.KindWrongSecretWithAlternatives))
		Expect(out.Alternatives).To(Equal([]string{"Zed", "alice", "bob"}))
	})

	It("keeps stale inverse memberships after a secret change", func() {
		_, err := engine.Register(ctx, "bob", "newsecret")
		Expect(err).NotTo(HaveOccurred())

		ids, err := store.GetIdentitiesBySecret(ctx, "hunter2", credential.AlternativesLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(ContainElement("bob"))
	})

	It("pages through the forward index", func() {
		entries, next, err := store.ScanForward(ctx, "", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(next).To(Equal(entries[1].Identity))
	})

	It("stores notes", func() {
		Expect(store.SetNote(ctx, "alice", "remember the milk")).To(Succeed())
		body, found, err := store.GetNote(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(body).To(Equal("remember the milk"))
	})
})

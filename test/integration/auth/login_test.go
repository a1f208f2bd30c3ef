// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

//go:build integration

package auth_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/txn"
)

var (
	premiumA = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	premiumB = uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
)

func cracked(username string) identity.Identity {
	return identity.New(identity.OfflineUUID(username), username)
}

// newService wires a Service on b with cheap password hashing.
func newService(b *backend) *auth.Service {
	exec, err := txn.NewExecutor[auth.Tx](b.transactor, txn.Config{
		Workers:    8,
		MaxRetries: 10,
		RetryBase:  5 * time.Millisecond,
		Retryable:  b.retryable,
		Logger:     slog.New(slog.DiscardHandler),
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(exec.Close)

	hasher, err := auth.NewArgon2Hasher(auth.Params{Iterations: 1, MemoryKiB: 64})
	Expect(err).NotTo(HaveOccurred())

	svc, err := auth.NewService(auth.ServiceConfig{
		Center: auth.NewCenter(auth.CenterConfig{
			Logger:  slog.New(slog.DiscardHandler),
			Metrics: auth.NewMetrics(prometheus.NewRegistry()),
		}),
		Hasher:   hasher,
		Executor: exec,
		Logger:   slog.New(slog.DiscardHandler),
	})
	Expect(err).NotTo(HaveOccurred())
	return svc
}

func await[T any](f *txn.Future[T]) T {
	GinkgoHelper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	Expect(err).NotTo(HaveOccurred())
	return v
}

func loginSpecs(get func() *backend) {
	var (
		ctx context.Context
		svc *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		b := get()
		Expect(b.reset(ctx)).To(Succeed())
		svc = newService(b)
	})

	Describe("premium logins", func() {
		It("registers a new premium name and permits it again without writes", func() {
			id := identity.New(premiumA, "Notch")

			first := await(svc.Resolve(ctx, id))
			Expect(first.Outcome).To(Equal(auth.OutcomePremiumPermitted))
			Expect(first.UserID).NotTo(BeZero())

			second := await(svc.Resolve(ctx, id))
			Expect(second.Outcome).To(Equal(auth.OutcomePremiumPermitted))
			Expect(second.UserID).To(Equal(first.UserID))
		})

		It("denies a cracked player the premium player's name", func() {
			await(svc.Resolve(ctx, identity.New(premiumA, "Notch")))

			res := await(svc.Resolve(ctx, cracked("Notch")))
			Expect(res.Outcome).To(Equal(auth.OutcomeDeniedPremiumTookName))
		})

		It("denies a different premium player the name in other case", func() {
			await(svc.Resolve(ctx, identity.New(premiumA, "Notch")))

			res := await(svc.Resolve(ctx, identity.New(premiumB, "NOTCH")))
			Expect(res.Outcome).To(Equal(auth.OutcomeDeniedCaseSensitivityOfName))
		})
	})

	Describe("cracked accounts", func() {
		It("walks a cracked player from account creation to login", func() {
			steve := cracked("Steve")

			Expect(await(svc.Resolve(ctx, steve)).Outcome).To(Equal(auth.OutcomeNeedsAccount))

			created := await(svc.CreateAccount(ctx, steve, "hunter22"))
			Expect(created.Result).To(Equal(auth.CreateResultCreated))

			rejected := await(svc.LoginWithPassword(ctx, steve, "hunter2"))
			Expect(rejected.Resolution.Outcome).To(Equal(auth.OutcomeNeedsPassword))
			Expect(rejected.Login.Accepted).To(BeFalse())

			accepted := await(svc.LoginWithPassword(ctx, steve, "hunter22"))
			Expect(accepted.Login.Accepted).To(BeTrue())
			Expect(accepted.Login.Completion.Result).To(Equal(auth.CompletionNormal))
			Expect(accepted.Login.Completion.UserID).To(Equal(created.UserID))
		})

		It("treats a second creation as a conflict", func() {
			Expect(await(svc.CreateAccount(ctx, cracked("Steve"), "one")).Result).To(Equal(auth.CreateResultCreated))
			Expect(await(svc.CreateAccount(ctx, cracked("Steve"), "two")).Result).To(Equal(auth.CreateResultConflict))
		})

		It("rejects names that differ only in case", func() {
			Expect(await(svc.CreateAccount(ctx, cracked("a248"), "one")).Result).To(Equal(auth.CreateResultCreated))

			Expect(await(svc.CreateAccount(ctx, cracked("A248"), "two")).Result).To(Equal(auth.CreateResultConflict))
			Expect(await(svc.Resolve(ctx, cracked("A248"))).Outcome).To(Equal(auth.OutcomeDeniedCaseSensitivityOfName))
		})

		It("rolls back an account whose uuid does not match its name", func() {
			_, err := svc.CreateAccount(ctx, identity.New(identity.OfflineUUID("Alex"), "Steve"), "pw").Wait(ctx)
			Expect(err).To(MatchError(auth.ErrIdentityMismatch))

			Expect(await(svc.Resolve(ctx, cracked("Steve"))).Outcome).To(Equal(auth.OutcomeNeedsAccount))
		})
	})

	Describe("migration to premium", func() {
		It("moves a cracked account to the premium owner of the name", func() {
			created := await(svc.CreateAccount(ctx, cracked("A248"), "secret"))

			flow := await(svc.LoginWithPassword(ctx, identity.New(premiumA, "A248"), "secret"))
			Expect(flow.Resolution.Outcome).To(Equal(auth.OutcomeNeedsPassword))
			Expect(flow.Login.Accepted).To(BeTrue())
			Expect(flow.Login.Completion.Result).To(Equal(auth.CompletionMigratedToPremium))
			Expect(flow.Login.Completion.UserID).To(Equal(created.UserID))

			By("permitting the premium player without a password")
			res := await(svc.Resolve(ctx, identity.New(premiumA, "A248")))
			Expect(res.Outcome).To(Equal(auth.OutcomePremiumPermitted))
			Expect(res.UserID).To(Equal(created.UserID))

			By("locking the cracked player out")
			lockedOut := await(svc.LoginWithPassword(ctx, cracked("A248"), "secret"))
			Expect(lockedOut.Resolution.Outcome).To(Equal(auth.OutcomeDeniedPremiumTookName))
			Expect(lockedOut.Login.Accepted).To(BeFalse())
		})
	})

	Describe("concurrent logins", func() {
		It("creates exactly one account for concurrent creations of one name", func() {
			const racers = 8
			results := make([]auth.CreateResult, racers)
			var wg sync.WaitGroup
			for i := range racers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					results[i] = await(svc.CreateAccount(ctx, cracked("Steve"), "hunter22")).Result
				}()
			}
			wg.Wait()

			Expect(results).To(ContainElement(auth.CreateResultCreated))
			created := 0
			for _, r := range results {
				if r == auth.CreateResultCreated {
					created++
				}
			}
			Expect(created).To(Equal(1))
		})

		It("migrates an account exactly once under concurrent password logins", func() {
			created := await(svc.CreateAccount(ctx, cracked("A248"), "secret"))

			ids := []uuid.UUID{premiumA, premiumB}
			flows := make([]auth.PasswordFlow, len(ids))
			var wg sync.WaitGroup
			for i, id := range ids {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					flows[i] = await(svc.LoginWithPassword(ctx, identity.New(id, "A248"), "secret"))
				}()
			}
			wg.Wait()

			migrated := 0
			for i, flow := range flows {
				if flow.Login.Completion.Result != auth.CompletionMigratedToPremium {
					continue
				}
				migrated++
				res := await(svc.Resolve(ctx, identity.New(ids[i], "A248")))
				Expect(res.UserID).To(Equal(created.UserID))
			}
			Expect(migrated).To(Equal(1))
		})

		It("registers a premium name once under concurrent first logins", func() {
			const racers = 6
			userIDs := make([]auth.UserID, racers)
			var wg sync.WaitGroup
			for i := range racers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					res := await(svc.Resolve(ctx, identity.New(premiumA, "Notch")))
					Expect(res.Outcome).To(Equal(auth.OutcomePremiumPermitted))
					userIDs[i] = res.UserID
				}()
			}
			wg.Wait()

			for _, id := range userIDs {
				Expect(id).To(Equal(userIDs[0]))
			}
		})
	})
}

var _ = Describe("Login on PostgreSQL", func() {
	loginSpecs(func() *backend { return env.postgres })
})

var _ = Describe("Login on MySQL", func() {
	loginSpecs(func() *backend { return env.mysql })
})

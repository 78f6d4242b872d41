package services

import (
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker ports.PeriodLocker, provider ports.BankProvider, options ...EngineOption) *portssvc.ServiceContainer {
	engine := NewLedgerEngine(repos, locker, options...)

	container := &portssvc.ServiceContainer{}
	container.Account = NewAccountService(repos.AccountRepo, WithAccountClock(engine.clock))
	container.Journal = NewJournalService(engine)
	container.Period = NewPeriodService(engine)
	container.YearEnd = NewYearEndService(engine, cfg.RetainedEarningsCode)
	container.VAT = NewVATService(engine)
	container.Invoice = NewInvoiceService(engine)
	container.Bank = NewBankService(engine, provider,
		WithMatchWindowDays(cfg.AutoMatchWindowDays),
		WithProviderTimeout(cfg.BankProviderTimeout),
	)

	return container
}

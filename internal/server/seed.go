package server

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/service"
)

// seedSampleData loads a demo data set: three customers, five accounts and a
// few opening transactions. Intended for local development only.
func seedSampleData(customers *repository.CustomerDirectory, accounts *service.AccountService,
	transactions *service.TransactionService, logger *slog.Logger) error {

	logger.Info("Seeding sample data")

	john, err := customers.CreateCustomer("John Doe", "john.doe@example.com", "+1234567890", "123 Main St")
	if err != nil {
		return err
	}
	jane, err := customers.CreateCustomer("Jane Smith", "jane.smith@example.com", "+0987654321", "456 Oak Ave")
	if err != nil {
		return err
	}
	bob, err := customers.CreateCustomer("Bob Johnson", "bob.johnson@example.com", "+1122334455", "789 Pine Rd")
	if err != nil {
		return err
	}

	johnSavings, err := accounts.OpenAccount(john, domain.AccountTypeSavings, decimal.RequireFromString("1000.00"))
	if err != nil {
		return err
	}
	johnChecking, err := accounts.OpenAccount(john, domain.AccountTypeChecking, decimal.RequireFromString("500.00"))
	if err != nil {
		return err
	}
	janeSavings, err := accounts.OpenAccount(jane, domain.AccountTypeSavings, decimal.RequireFromString("2000.00"))
	if err != nil {
		return err
	}
	janeBusiness, err := accounts.OpenAccount(jane, domain.AccountTypeBusiness, decimal.RequireFromString("5000.00"))
	if err != nil {
		return err
	}
	if _, err := accounts.OpenAccount(bob, domain.AccountTypeChecking, decimal.RequireFromString("750.00")); err != nil {
		return err
	}

	if _, err := transactions.Deposit(johnSavings.Number, decimal.RequireFromString("500.00"), "Initial bonus deposit"); err != nil {
		return err
	}
	if _, err := transactions.Withdraw(johnChecking.Number, decimal.RequireFromString("100.00"), "ATM withdrawal"); err != nil {
		return err
	}
	if _, err := transactions.Transfer(janeSavings.Number, johnSavings.Number, decimal.RequireFromString("250.00"), "Transfer to John's savings"); err != nil {
		return err
	}
	if _, err := transactions.Deposit(janeBusiness.Number, decimal.RequireFromString("1000.00"), "Business revenue"); err != nil {
		return err
	}

	logger.Info("Sample data seeded",
		"john_savings", johnSavings.Number,
		"jane_savings", janeSavings.Number)
	return nil
}

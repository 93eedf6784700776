package main

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"bank-ledger/internal/config"
	"bank-ledger/internal/server"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer *postgres.PostgresContainer
	serverInstance    *server.Server
	serverPort        string
	baseURL           string
	client            *http.Client
	dbConnStr         string

	customerID    int64
	accountNumber string
	otherNumber   string
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	// Start PostgreSQL container with explicit configuration
	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("bank_ledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	// Build connection string without SSL
	suite.dbConnStr, err = postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to build connection string: %s", err)
	}

	// Run migrations
	if err := suite.runMigrations(); err != nil {
		suite.T().Fatalf("Failed to run migrations: %s", err)
	}

	// Seed the customer the accounts will belong to
	if err := suite.seedCustomer(); err != nil {
		suite.T().Fatalf("Failed to seed customer: %s", err)
	}

	// Start the application server
	if err := suite.startApplicationServer(); err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}

	suite.client = &http.Client{
		Timeout: 30 * time.Second,
	}
}

func (suite *IntegrationTestSuite) runMigrations() error {
	// Create database connection
	db, err := sql.Open("postgres", suite.dbConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	// Read migration files from embedded filesystem
	migrationFiles, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migration files by name (version)
	sort.Slice(migrationFiles, func(i, j int) bool {
		return migrationFiles[i].Name() < migrationFiles[j].Name()
	})

	suite.T().Logf("Found %d migration files", len(migrationFiles))

	// Execute migrations in order
	for _, file := range migrationFiles {
		if strings.HasSuffix(file.Name(), ".sql") {
			suite.T().Logf("Executing migration: %s", file.Name())

			migrationPath := filepath.Join("migrations", file.Name())
			migrationSQL, err := migrationsFS.ReadFile(migrationPath)
			if err != nil {
				return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
			}

			if _, err := db.Exec(string(migrationSQL)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
			}

			suite.T().Logf("Successfully executed migration: %s", file.Name())
		}
	}

	return nil
}

func (suite *IntegrationTestSuite) seedCustomer() error {
	db, err := sql.Open("postgres", suite.dbConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.QueryRow(
		`INSERT INTO customers (name, email, phone, address) VALUES ($1, $2, $3, $4) RETURNING id`,
		"Integration Tester", "integration@example.com", "+1-555-0000", "1 Test Street",
	).Scan(&suite.customerID)
}

func (suite *IntegrationTestSuite) startApplicationServer() error {
	cfg := &config.Config{
		DBHost:     "localhost",
		DBPort:     "5432", // This will be overridden by the mapped port
		DBUser:     "postgres",
		DBPassword: "password",
		DBName:     "bank_ledger",
		ServerPort: "0", // Let OS choose a free port
	}

	// Get the actual port from the container
	ctx := context.Background()
	mappedPort, err := suite.postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		return err
	}
	cfg.DBPort = mappedPort.Port()

	// Start server
	serverInstance, port, err := server.StartServer(cfg)
	if err != nil {
		return err
	}

	suite.serverInstance = serverInstance
	suite.serverPort = port
	suite.baseURL = "http://localhost:" + port

	// Wait for server to be ready
	return suite.waitForServerReady()
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}

	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

// Helper methods for API calls with better error handling
func (suite *IntegrationTestSuite) doJSON(method, path string, reqBody interface{}) (*http.Response, string, error) {
	var reader io.Reader
	if reqBody != nil {
		body, _ := json.Marshal(reqBody)
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	if err != nil {
		return resp, "", err
	}

	// Read response body for debugging
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Create a new response with the body for further processing
	newResp := &http.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	return newResp, string(respBody), nil
}

func (suite *IntegrationTestSuite) openAccount(accountType, initialDeposit string) (*http.Response, string, error) {
	return suite.doJSON("POST", "/accounts", map[string]interface{}{
		"customer_id":     suite.customerID,
		"account_type":    accountType,
		"initial_deposit": initialDeposit,
	})
}

func (suite *IntegrationTestSuite) getAccount(number string) (*http.Response, string, error) {
	return suite.doJSON("GET", "/accounts/"+number, nil)
}

func (suite *IntegrationTestSuite) deposit(number, amount, description string) (*http.Response, string, error) {
	return suite.doJSON("POST", "/accounts/"+number+"/deposits", map[string]interface{}{
		"amount":      amount,
		"description": description,
	})
}

func (suite *IntegrationTestSuite) withdraw(number, amount, description string) (*http.Response, string, error) {
	return suite.doJSON("POST", "/accounts/"+number+"/withdrawals", map[string]interface{}{
		"amount":      amount,
		"description": description,
	})
}

func (suite *IntegrationTestSuite) transfer(fromNumber, toNumber, amount string) (*http.Response, string, error) {
	return suite.doJSON("POST", "/transfers", map[string]interface{}{
		"from_account_number": fromNumber,
		"to_account_number":   toNumber,
		"amount":              amount,
	})
}

// Helper to parse response and log errors
func (suite *IntegrationTestSuite) parseResponse(body string) (map[string]interface{}, error) {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		suite.T().Logf("Failed to parse response: %s", body)
		return nil, err
	}
	return response, nil
}

func (suite *IntegrationTestSuite) responseData(body string) map[string]interface{} {
	response, err := suite.parseResponse(body)
	assert.NoError(suite.T(), err)

	data, hasData := response["data"]
	assert.True(suite.T(), hasData, "Response should have 'data' field")
	if !hasData {
		return map[string]interface{}{}
	}
	return data.(map[string]interface{})
}

func (suite *IntegrationTestSuite) assertErrorCode(body, code string) {
	response, err := suite.parseResponse(body)
	assert.NoError(suite.T(), err)

	errorData, hasError := response["error"]
	assert.True(suite.T(), hasError, "Response should have 'error' field for error cases")
	if hasError {
		errorInfo := errorData.(map[string]interface{})
		assert.Equal(suite.T(), code, errorInfo["code"])
	}
}

// Helper to compare decimal values properly
func (suite *IntegrationTestSuite) assertDecimalEqual(expected, actual string, msgAndArgs ...interface{}) {
	expectedDec, err := decimal.NewFromString(expected)
	if err != nil {
		suite.T().Fatalf("Invalid expected decimal: %s", expected)
	}

	actualDec, err := decimal.NewFromString(actual)
	if err != nil {
		suite.T().Fatalf("Invalid actual decimal: %s", actual)
	}

	assert.True(suite.T(), expectedDec.Equal(actualDec),
		"Decimal values not equal: expected %s, got %s", expected, actual)
}

func (suite *IntegrationTestSuite) assertBalance(number, expected string) {
	resp, body, err := suite.doJSON("GET", "/accounts/"+number+"/balance", nil)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data := suite.responseData(body)
	suite.assertDecimalEqual(expected, data["balance"].(string))
}

// ------------------------------------------------------------------
// Steps below are helpers (non-test methods). They will be executed
// in the order invoked by TestFlow. This allows deterministic ordering
// without relying on test function name prefixes.
// ------------------------------------------------------------------

func (suite *IntegrationTestSuite) stepHealthCheck() {
	resp, err := suite.client.Get(suite.baseURL + "/health")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var healthResp map[string]interface{}
	err = json.Unmarshal(body, &healthResp)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "healthy", healthResp["status"])
}

func (suite *IntegrationTestSuite) stepOpenAccounts() {
	resp, body, err := suite.openAccount("SAVINGS", "1000.00")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Open Account Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	data := suite.responseData(body)
	suite.accountNumber = data["account_number"].(string)
	assert.Len(suite.T(), suite.accountNumber, 10)
	assert.Equal(suite.T(), "ACTIVE", data["status"])
	assert.Equal(suite.T(), "SAVINGS", data["account_type"])
	suite.assertDecimalEqual("1000.00", data["balance"].(string))

	resp, body, err = suite.openAccount("CHECKING", "500.25")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Open Account Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	data = suite.responseData(body)
	suite.otherNumber = data["account_number"].(string)
	assert.NotEqual(suite.T(), suite.accountNumber, suite.otherNumber)

	// Read back through the API
	resp, body, err = suite.getAccount(suite.accountNumber)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	data = suite.responseData(body)
	suite.assertDecimalEqual("1000.00", data["balance"].(string))
}

func (suite *IntegrationTestSuite) stepOpenAccountUnknownCustomer() {
	resp, body, err := suite.doJSON("POST", "/accounts", map[string]interface{}{
		"customer_id":     suite.customerID + 1000,
		"account_type":    "SAVINGS",
		"initial_deposit": "0",
	})
	assert.NoError(suite.T(), err)
	suite.T().Logf("Unknown Customer Response: %s", body)
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	suite.assertErrorCode(body, "customer_not_found")
}

func (suite *IntegrationTestSuite) stepListAccountsByCustomer() {
	resp, body, err := suite.doJSON("GET", fmt.Sprintf("/customers/%d/accounts", suite.customerID), nil)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	response, err := suite.parseResponse(body)
	assert.NoError(suite.T(), err)

	accounts, ok := response["data"].([]interface{})
	assert.True(suite.T(), ok, "Response data should be a list")
	assert.Len(suite.T(), accounts, 2)
}

func (suite *IntegrationTestSuite) stepDeposit() {
	resp, body, err := suite.deposit(suite.accountNumber, "500.00", "salary")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Deposit Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	data := suite.responseData(body)
	assert.Equal(suite.T(), "DEPOSIT", data["type"])
	assert.True(suite.T(), strings.HasPrefix(data["transaction_id"].(string), "TXN-"))
	suite.assertDecimalEqual("500.00", data["amount"].(string))
	suite.assertDecimalEqual("1500.00", data["balance_after"].(string))

	suite.assertBalance(suite.accountNumber, "1500.00")
}

func (suite *IntegrationTestSuite) stepWithdraw() {
	resp, body, err := suite.withdraw(suite.accountNumber, "200.00", "rent")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Withdraw Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	data := suite.responseData(body)
	assert.Equal(suite.T(), "WITHDRAWAL", data["type"])
	suite.assertDecimalEqual("1300.00", data["balance_after"].(string))

	suite.assertBalance(suite.accountNumber, "1300.00")
}

func (suite *IntegrationTestSuite) stepInsufficientBalance() {
	resp, body, err := suite.withdraw(suite.accountNumber, "10000.00", "")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Insufficient Balance Response: %s", body)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, resp.StatusCode)
	suite.assertErrorCode(body, "insufficient_balance")

	// Balance unchanged
	suite.assertBalance(suite.accountNumber, "1300.00")
}

func (suite *IntegrationTestSuite) stepTransfer() {
	resp, body, err := suite.transfer(suite.accountNumber, suite.otherNumber, "300.00")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Transfer Response: %s", body)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	response, err := suite.parseResponse(body)
	assert.NoError(suite.T(), err)

	legs, ok := response["data"].([]interface{})
	assert.True(suite.T(), ok, "Transfer response data should be a list")
	assert.Len(suite.T(), legs, 2)

	if len(legs) == 2 {
		out := legs[0].(map[string]interface{})
		in := legs[1].(map[string]interface{})

		assert.Equal(suite.T(), "TRANSFER_OUT", out["type"])
		suite.assertDecimalEqual("1000.00", out["balance_after"].(string))
		assert.Equal(suite.T(), suite.otherNumber, out["to_account_number"])
		assert.Equal(suite.T(), suite.accountNumber, out["from_account_number"])

		assert.Equal(suite.T(), "TRANSFER_IN", in["type"])
		suite.assertDecimalEqual("800.25", in["balance_after"].(string))
	}

	suite.assertBalance(suite.accountNumber, "1000.00")
	suite.assertBalance(suite.otherNumber, "800.25")
}

func (suite *IntegrationTestSuite) stepSameAccountTransfer() {
	resp, body, err := suite.transfer(suite.accountNumber, suite.accountNumber, "100.00")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Same Account Transfer Response: %s", body)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	suite.assertErrorCode(body, "same_account_transfer")
}

func (suite *IntegrationTestSuite) stepInvalidAmount() {
	resp, body, err := suite.deposit(suite.accountNumber, "-100.00", "")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Invalid Amount Response: %s", body)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	suite.assertErrorCode(body, "invalid_amount")

	resp, body, err = suite.withdraw(suite.accountNumber, "0.00", "")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Zero Amount Response: %s", body)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	suite.assertErrorCode(body, "invalid_amount")
}

func (suite *IntegrationTestSuite) stepAccountNotFound() {
	resp, body, err := suite.getAccount("0000000000")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Account Not Found Response: %s", body)
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	suite.assertErrorCode(body, "account_not_found")
}

func (suite *IntegrationTestSuite) stepHistory() {
	resp, body, err := suite.doJSON("GET", "/accounts/"+suite.accountNumber+"/transactions", nil)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	response, err := suite.parseResponse(body)
	assert.NoError(suite.T(), err)

	// Deposit, withdrawal, transfer out -- newest first
	entries, ok := response["data"].([]interface{})
	assert.True(suite.T(), ok, "History response data should be a list")
	assert.Len(suite.T(), entries, 3)

	if len(entries) == 3 {
		assert.Equal(suite.T(), "TRANSFER_OUT", entries[0].(map[string]interface{})["type"])
		assert.Equal(suite.T(), "WITHDRAWAL", entries[1].(map[string]interface{})["type"])
		assert.Equal(suite.T(), "DEPOSIT", entries[2].(map[string]interface{})["type"])
	}

	// Filtered by type
	resp, body, err = suite.doJSON("GET", "/accounts/"+suite.accountNumber+"/transactions?type=DEPOSIT", nil)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	response, err = suite.parseResponse(body)
	assert.NoError(suite.T(), err)
	entries, _ = response["data"].([]interface{})
	assert.Len(suite.T(), entries, 1)
}

func (suite *IntegrationTestSuite) stepCloseAccountFlow() {
	// Non-zero balance is rejected
	resp, body, err := suite.doJSON("DELETE", "/accounts/"+suite.accountNumber, nil)
	assert.NoError(suite.T(), err)
	suite.T().Logf("Close Non-Zero Response: %s", body)
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	suite.assertErrorCode(body, "non_zero_balance")

	// Drain the account, then closing succeeds
	resp, _, err = suite.withdraw(suite.accountNumber, "1000.00", "drain")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	resp, body, err = suite.doJSON("DELETE", "/accounts/"+suite.accountNumber, nil)
	assert.NoError(suite.T(), err)
	suite.T().Logf("Close Response: %s", body)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data := suite.responseData(body)
	assert.Equal(suite.T(), true, data["closed"])

	// Closed accounts accept no deposits
	resp, body, err = suite.deposit(suite.accountNumber, "1.00", "late")
	assert.NoError(suite.T(), err)
	suite.T().Logf("Deposit After Close Response: %s", body)
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	suite.assertErrorCode(body, "account_not_active")
}

func (suite *IntegrationTestSuite) TestFlow() {
	if testing.Short() {
		suite.T().Skip("Skipping integration test in short mode")
	}

	suite.stepHealthCheck()
	suite.stepOpenAccounts()
	suite.stepOpenAccountUnknownCustomer()
	suite.stepListAccountsByCustomer()
	suite.stepDeposit()
	suite.stepWithdraw()
	suite.stepInsufficientBalance()
	suite.stepTransfer()
	suite.stepSameAccountTransfer()
	suite.stepInvalidAmount()
	suite.stepAccountNotFound()
	suite.stepHistory()
	suite.stepCloseAccountFlow()
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

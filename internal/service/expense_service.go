package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/calculator"
	"github.com/hearthkeep/hearthkeep/internal/coordinator"
	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// ExpenseService handles personal and group expenses, settlement marking
// and group balance summaries.
type ExpenseService struct {
	coord         *coordinator.Coordinator
	expenses      storage.ExpenseStore
	groupExpenses storage.ExpenseIndexStore
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(coord *coordinator.Coordinator, expenses storage.ExpenseStore, groupExpenses storage.ExpenseIndexStore) *ExpenseService {
	return &ExpenseService{coord: coord, expenses: expenses, groupExpenses: groupExpenses}
}

// Register mounts the expense routes on an authenticated group.
func (s *ExpenseService) Register(g *echo.Group) {
	g.POST("/expenses", s.handleAddExpense)
	g.GET("/expenses/:id", s.handleGetExpense)
	g.POST("/expenses/:id/settlements", s.handleSettle)
	g.POST("/groups/:name/expenses", s.handleAddGroupExpense)
	g.GET("/groups/:name/expenses", s.handleListGroupExpenses)
	g.GET("/groups/:name/balances", s.handleGroupBalances)
}

type addExpenseRequest struct {
	Description  string   `json:"description"`
	Amount       float64  `json:"amount"`
	PaidBy       string   `json:"paidBy"`
	Participants []string `json:"participants"`
}

type expenseResponse struct {
	Key     string          `json:"key"`
	Expense *models.Expense `json:"expense"`
}

func (s *ExpenseService) buildExpense(c echo.Context) (*models.Expense, error) {
	var req addExpenseRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.PaidBy == "" {
		req.PaidBy = middleware.Username(c)
	}
	expense, err := models.NewExpense(req.Description, req.Amount, req.PaidBy, req.Participants)
	if err != nil {
		return nil, httpError(err)
	}
	return expense, nil
}

func (s *ExpenseService) handleAddExpense(c echo.Context) error {
	expense, err := s.buildExpense(c)
	if err != nil {
		return err
	}

	key := uuid.New().String()
	if err := s.expenses.Create(c.Request().Context(), key, expense); err != nil {
		return httpError(err)
	}

	slog.Info("expense added", "expense_key", key, "paid_by", expense.PaidBy)
	return c.JSON(http.StatusCreated, expenseResponse{Key: key, Expense: expense})
}

func (s *ExpenseService) handleAddGroupExpense(c echo.Context) error {
	expense, err := s.buildExpense(c)
	if err != nil {
		return err
	}

	key, err := s.coord.AddGroupExpense(c.Request().Context(), c.Param("name"), expense)
	if err != nil {
		var partial *coordinator.PartialError
		if errors.As(err, &partial) {
			slog.Error("group expense persisted partially",
				"group", c.Param("name"),
				"expense_key", key,
				"failed_step", partial.Failed,
				"error", partial.Cause,
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "expense recorded but not indexed")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, expenseResponse{Key: key, Expense: expense})
}

func (s *ExpenseService) handleGetExpense(c echo.Context) error {
	expense, err := s.expenses.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, expenseResponse{Key: c.Param("id"), Expense: expense})
}

type settleRequest struct {
	Username string `json:"username"`
}

type settleResponse struct {
	Key          string          `json:"key"`
	Expense      *models.Expense `json:"expense"`
	FullySettled bool            `json:"fullySettled"`
}

// handleSettle marks a participant's share as paid. Settling the payer or
// a username with no settlement entry is a no-op, so repeating the call
// never fails.
func (s *ExpenseService) handleSettle(c echo.Context) error {
	var req settleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Username == "" {
		req.Username = middleware.Username(c)
	}
	ctx := c.Request().Context()
	key := c.Param("id")

	expense, err := s.expenses.Load(ctx, key)
	if err != nil {
		return httpError(err)
	}
	expense.SettleParticipant(req.Username)
	if err := s.expenses.Save(ctx, key, expense); err != nil {
		return httpError(err)
	}

	slog.Info("settlement recorded", "expense_key", key, "username", req.Username)
	return c.JSON(http.StatusOK, settleResponse{
		Key:          key,
		Expense:      expense,
		FullySettled: expense.IsFullySettled(),
	})
}

// loadGroupExpenses resolves a group's expense index into expense values.
// Index entries whose document is missing are skipped: a lost index write
// or deleted expense must not take the whole listing down.
func (s *ExpenseService) loadGroupExpenses(c echo.Context, groupName string) (map[string]*models.Expense, error) {
	ctx := c.Request().Context()
	index, err := s.groupExpenses.Load(ctx, groupName)
	if err != nil {
		return nil, httpError(err)
	}

	expenses := make(map[string]*models.Expense, len(index.Expenses))
	for _, key := range index.Expenses {
		expense, err := s.expenses.Load(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			slog.Warn("group expense index references missing expense", "group", groupName, "expense_key", key)
			continue
		}
		if err != nil {
			return nil, httpError(err)
		}
		expenses[key] = expense
	}
	return expenses, nil
}

func (s *ExpenseService) handleListGroupExpenses(c echo.Context) error {
	expenses, err := s.loadGroupExpenses(c, c.Param("name"))
	if err != nil {
		return err
	}

	list := make([]expenseResponse, 0, len(expenses))
	for key, expense := range expenses {
		list = append(list, expenseResponse{Key: key, Expense: expense})
	}
	return c.JSON(http.StatusOK, map[string]any{"expenses": list})
}

type balancesResponse struct {
	Balances []calculator.MemberBalance `json:"balances"`
	Debts    []calculator.DebtEdge      `json:"debts"`
}

func (s *ExpenseService) handleGroupBalances(c echo.Context) error {
	byKey, err := s.loadGroupExpenses(c, c.Param("name"))
	if err != nil {
		return err
	}

	expenses := make([]*models.Expense, 0, len(byKey))
	for _, expense := range byKey {
		expenses = append(expenses, expense)
	}
	balances, debts := calculator.CalculateGroupBalances(expenses)
	return c.JSON(http.StatusOK, balancesResponse{Balances: balances, Debts: debts})
}

package service

import (
	"errors"
	"testing"

	"github.com/spendly/spendly-backend/internal/domain"
)

func TestListCategories_DefaultsFirst(t *testing.T) {
	e := newEnv(t)
	_, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Apples", Type: domain.CategoryTypeExpense})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	all, err := e.categoryService.ListCategories(e.ctx, e.userID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 categories, got %d", len(all))
	}
	if all[len(all)-1].Name != "Apples" {
		t.Errorf("Expected own category after system defaults, got %s last", all[len(all)-1].Name)
	}

	expenseType := domain.CategoryTypeExpense
	expenses, err := e.categoryService.ListCategories(e.ctx, e.userID, &expenseType)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("Expected 2 expense categories, got %d", len(expenses))
	}

	bogus := domain.CategoryType("gift")
	if _, err := e.categoryService.ListCategories(e.ctx, e.userID, &bogus); !errors.Is(err, domain.ErrInvalidCategoryType) {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestCreateCategory(t *testing.T) {
	e := newEnv(t)

	c, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{
		Name:  " Coffee ",
		Type:  domain.CategoryTypeExpense,
		Icon:  "cup",
		Color: "#a1b2c3",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Name != "Coffee" || c.Color != "#A1B2C3" || c.IsSystem() {
		t.Errorf("Unexpected category %+v", c)
	}

	plain, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Tips", Type: domain.CategoryTypeIncome})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if plain.Color != DefaultCategoryColor {
		t.Errorf("Expected default color, got %s", plain.Color)
	}
}

func TestCreateCategory_Validation(t *testing.T) {
	e := newEnv(t)
	if _, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeExpense}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tests := []struct {
		name    string
		input   CreateCategoryInput
		wantErr error
	}{
		{"blank name", CreateCategoryInput{Name: "", Type: domain.CategoryTypeExpense}, domain.ErrNameRequired},
		{"long name", CreateCategoryInput{Name: string(make([]rune, domain.MaxCategoryNameLength+1)), Type: domain.CategoryTypeExpense}, domain.ErrNameTooLong},
		{"bad type", CreateCategoryInput{Name: "X", Type: "transfer"}, domain.ErrInvalidCategoryType},
		{"bad color", CreateCategoryInput{Name: "X", Type: domain.CategoryTypeExpense, Color: "red"}, domain.ErrInvalidColor},
		{"duplicate ignoring case", CreateCategoryInput{Name: "COFFEE", Type: domain.CategoryTypeExpense}, domain.ErrCategoryExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.categoryService.CreateCategory(e.ctx, e.userID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	// Same name with another type is fine
	if _, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeIncome}); err != nil {
		t.Errorf("Expected same name with other type to succeed, got %v", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	e := newEnv(t)
	c, _ := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeExpense})
	_, _ = e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Tea", Type: domain.CategoryTypeExpense})

	updated, err := e.categoryService.UpdateCategory(e.ctx, e.userID, c.ID, UpdateCategoryInput{Name: ptr("coffee"), Color: ptr("#000000")})
	if err != nil {
		t.Fatalf("Expected renaming to itself to succeed, got %v", err)
	}
	if updated.Name != "coffee" || updated.Color != "#000000" || updated.Type != domain.CategoryTypeExpense {
		t.Errorf("Unexpected category %+v", updated)
	}

	if _, err := e.categoryService.UpdateCategory(e.ctx, e.userID, c.ID, UpdateCategoryInput{Name: ptr("Tea")}); !errors.Is(err, domain.ErrCategoryExists) {
		t.Errorf("Expected ErrCategoryExists, got %v", err)
	}
	if _, err := e.categoryService.UpdateCategory(e.ctx, e.userID, e.food.ID, UpdateCategoryInput{Name: ptr("Meals")}); !errors.Is(err, domain.ErrCategoryReadOnly) {
		t.Errorf("Expected ErrCategoryReadOnly for system category, got %v", err)
	}
}

func TestDeleteCategory(t *testing.T) {
	e := newEnv(t)
	c, _ := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeExpense})

	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, e.food.ID); !errors.Is(err, domain.ErrCategoryReadOnly) {
		t.Errorf("Expected ErrCategoryReadOnly, got %v", err)
	}

	e.categories.InUse[c.ID] = true
	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse, got %v", err)
	}

	e.categories.InUse[c.ID] = false
	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestDeleteCategory_LiveReferencesBlock(t *testing.T) {
	e := newEnv(t)
	w := e.wallet("Cash", "EUR", "100")
	c, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeExpense})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tx, err := e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID: w.ID, CategoryID: &c.ID, Type: domain.TransactionTypeExpense, Amount: dec("3"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse with a live transaction, got %v", err)
	}

	if err := e.transactionService.DeleteTransaction(e.ctx, e.userID, tx.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := e.budgetService.CreateBudget(e.ctx, e.userID, BudgetInput{
		Name: "Coffee", Amount: dec("20"), CategoryIDs: []int32{c.ID},
		StartDate: day(2026, 10, 1), EndDate: day(2026, 10, 31),
	}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse with a budget, got %v", err)
	}
}

func TestDeleteCategory_OnlySoftDeletedTransactions(t *testing.T) {
	e := newEnv(t)
	w := e.wallet("Old card", "EUR", "100")
	c, err := e.categoryService.CreateCategory(e.ctx, e.userID, CreateCategoryInput{Name: "Coffee", Type: domain.CategoryTypeExpense})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	tx, err := e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID: w.ID, CategoryID: &c.ID, Type: domain.TransactionTypeExpense, Amount: dec("3"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Deleting the wallet soft-deletes the transaction with it
	if err := e.walletService.DeleteWallet(e.ctx, e.userID, w.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := e.categoryService.DeleteCategory(e.ctx, e.userID, c.ID); err != nil {
		t.Fatalf("Expected category referenced only by deleted transactions to be removable, got %v", err)
	}
	if _, ok := e.categories.Categories[c.ID]; ok {
		t.Error("Expected category to be removed")
	}
	if e.transactions.Transactions[tx.ID].CategoryID != nil {
		t.Error("Expected deleted transaction to be detached from the category")
	}
}

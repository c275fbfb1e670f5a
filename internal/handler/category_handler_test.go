package handler

import (
	"fmt"
	"net/http"
	"testing"
)

func TestGetCategories(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/v1/categories", "")
	expectStatus(t, rec, http.StatusOK)

	categories := decode[[]CategoryResponse](t, rec)
	if len(categories) != 3 {
		t.Fatalf("Expected 3 categories, got %d", len(categories))
	}

	system := 0
	for _, c := range categories {
		if c.IsSystem {
			system++
		}
	}
	if system != 2 {
		t.Errorf("Expected 2 system categories, got %d", system)
	}

	rec = a.do(http.MethodGet, "/api/v1/categories?type=income", "")
	expectStatus(t, rec, http.StatusOK)
	if income := decode[[]CategoryResponse](t, rec); len(income) != 1 || income[0].Name != "Salary" {
		t.Errorf("Expected only Salary, got %+v", income)
	}

	expectStatus(t, a.do(http.MethodGet, "/api/v1/categories?type=transfer", ""), http.StatusBadRequest)
}

func TestCreateCategory(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/categories", `{"name": "Pets", "type": "expense", "color": "#a1b2c3"}`)
	expectStatus(t, rec, http.StatusCreated)

	category := decode[CategoryResponse](t, rec)
	if category.Color != "#A1B2C3" {
		t.Errorf("Expected normalized color '#A1B2C3', got %s", category.Color)
	}
	if category.IsSystem {
		t.Error("Expected a user category")
	}

	expectStatus(t, a.do(http.MethodPost, "/api/v1/categories", `{"name": "pets", "type": "expense"}`), http.StatusConflict)
	expectFieldError(t, a.do(http.MethodPost, "/api/v1/categories", `{"name": "Gifts", "type": "transfer"}`), "type")
	expectFieldError(t, a.do(http.MethodPost, "/api/v1/categories", `{"name": "Gifts", "type": "expense", "color": "red"}`), "color")
}

func TestUpdateCategory(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", a.misc.ID), `{"name": "Hobby gear"}`)
	expectStatus(t, rec, http.StatusOK)
	if category := decode[CategoryResponse](t, rec); category.Name != "Hobby gear" {
		t.Errorf("Expected name 'Hobby gear', got %s", category.Name)
	}

	rec = a.do(http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", a.food.ID), `{"name": "Groceries"}`)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestDeleteCategory(t *testing.T) {
	a := newAPI(t)

	expectStatus(t, a.do(http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", a.food.ID), ""), http.StatusForbidden)

	a.categories.InUse[a.misc.ID] = true
	expectStatus(t, a.do(http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", a.misc.ID), ""), http.StatusConflict)

	a.categories.InUse[a.misc.ID] = false
	expectStatus(t, a.do(http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", a.misc.ID), ""), http.StatusNoContent)
	expectStatus(t, a.do(http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", a.misc.ID), ""), http.StatusNotFound)
}

package httpapi

import (
	"log"
	"net/http"

	emailapp "mailsort/internal/application/email"
)

type CategoriesHandler struct {
	Categories *emailapp.CategoriesUseCase
}

func (h CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Categories.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeErr(w, r, err, "Failed to fetch categories")
		return
	}
	WriteJSON(w, http.StatusOK, toCategoriesJSON(cats))
}

func (h CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in emailapp.CategoryInput
	if err := readJSON(w, r, &in); err != nil {
		writeErr(w, r, err, "Failed to create category")
		return
	}

	userID := userIDFrom(r.Context())
	cat, err := h.Categories.Create(r.Context(), userID, in)
	if err != nil {
		writeErr(w, r, err, "Failed to create category")
		return
	}

	log.Printf("Category created: %s for user %s", cat.Name, userID)
	WriteJSON(w, http.StatusCreated, toCategoryJSON(cat))
}

func (h CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in emailapp.CategoryInput
	if err := readJSON(w, r, &in); err != nil {
		writeErr(w, r, err, "Failed to update category")
		return
	}

	cat, err := h.Categories.Update(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeErr(w, r, err, "Failed to update category")
		return
	}
	WriteJSON(w, http.StatusOK, toCategoryJSON(cat))
}

func (h CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Categories.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeErr(w, r, err, "Failed to delete category")
		return
	}
	WriteJSON(w, http.StatusOK, messageJSON{Message: "Category deleted successfully"})
}

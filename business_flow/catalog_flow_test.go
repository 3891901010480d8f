package businessflow_test

import (
	"net/http"
	"testing"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFlow(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		invalidator := &fakeInvalidator{}
		flow := businessflow.NewCategoryFlow(e.categories, e.products, invalidator, nil)
		_, store := e.ownerWithStore(t)
		_, otherStore := e.ownerWithStore(t)

		drinks, err := flow.CreateCategory(e.ctx, store.ID, &dto.CreateCategoryRequest{Name: "Drinks"})
		require.NoError(t, err)
		drinksID := uuid.MustParse(drinks.ID)

		_, err = flow.CreateCategory(e.ctx, store.ID, &dto.CreateCategoryRequest{Name: "drinks"})
		requireBusinessError(t, err, http.StatusBadRequest, "Category name already exists in this store")

		// same name in another store is fine
		_, err = flow.CreateCategory(e.ctx, otherStore.ID, &dto.CreateCategoryRequest{Name: "Drinks"})
		require.NoError(t, err)

		_, err = flow.GetCategory(e.ctx, otherStore.ID, drinksID)
		requireBusinessError(t, err, http.StatusNotFound, "Category not found in the specified store")

		product := &models.Product{StoreID: store.ID, Name: "Cola", SellingPrice: 10000, CategoryID: &drinksID}
		require.NoError(t, e.products.Save(e.ctx, product))

		t.Run("ProductCount", func(t *testing.T) {
			got, err := flow.GetCategory(e.ctx, store.ID, drinksID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.ProductCount)

			list, err := flow.ListCategories(e.ctx, store.ID, dto.PageQuery{Page: 1, Size: 100, SortBy: "name", SortOrder: "asc"})
			require.NoError(t, err)
			require.Len(t, list.Items, 1)
			assert.Equal(t, int64(1), list.Items[0].ProductCount)
		})

		t.Run("RenameShowsOnProducts", func(t *testing.T) {
			_, err := flow.UpdateCategory(e.ctx, store.ID, drinksID, &dto.UpdateCategoryRequest{Name: utils.ToPtr("Beverages")})
			require.NoError(t, err)
			assert.Equal(t, 1, invalidator.count())

			reloaded, err := e.products.ByID(e.ctx, product.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.Category)
			assert.Equal(t, "Beverages", reloaded.Category.Name)
		})

		t.Run("DeleteInUse", func(t *testing.T) {
			err := flow.DeleteCategory(e.ctx, store.ID, drinksID)
			requireBusinessError(t, err, http.StatusBadRequest, "Cannot delete category that is being used by products")

			require.NoError(t, e.products.Delete(e.ctx, product.ID))
			require.NoError(t, flow.DeleteCategory(e.ctx, store.ID, drinksID))
		})

		t.Run("Search", func(t *testing.T) {
			for _, name := range []string{"Snacks", "Snack bars", "Frozen snacks", "Tools"} {
				_, err := flow.CreateCategory(e.ctx, store.ID, &dto.CreateCategoryRequest{Name: name})
				require.NoError(t, err)
			}
			page, err := flow.SearchCategories(e.ctx, store.ID, "snack", dto.PageQuery{Page: 1, Size: 10})
			require.NoError(t, err)
			require.Len(t, page.Items, 3)
			// prefix matches tie and fall back to name order
			assert.Equal(t, "Snack bars", page.Items[0].Name)
			assert.Equal(t, "Snacks", page.Items[1].Name)
			assert.Equal(t, "Frozen snacks", page.Items[2].Name)
		})
	})
}

func TestBrandFlow(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		invalidator := &fakeInvalidator{}
		flow := businessflow.NewBrandFlow(e.brands, e.products, nil, invalidator, nil)
		_, store := e.ownerWithStore(t)

		t.Run("DefaultThumbnail", func(t *testing.T) {
			brand, err := flow.CreateBrand(e.ctx, store.ID, &dto.CreateBrandRequest{Name: "TH True Milk"})
			require.NoError(t, err)
			assert.Empty(t, brand.ImageURLs)
			assert.Equal(t, utils.InitialsAvatarURL("TH True Milk"), brand.ThumbnailURL)

			renamed, err := flow.UpdateBrand(e.ctx, store.ID, uuid.MustParse(brand.ID), &dto.UpdateBrandRequest{Name: utils.ToPtr("TH")})
			require.NoError(t, err)
			assert.Equal(t, utils.InitialsAvatarURL("TH"), renamed.ThumbnailURL)
		})

		t.Run("LegacyImageURL", func(t *testing.T) {
			brand, err := flow.CreateBrand(e.ctx, store.ID, &dto.CreateBrandRequest{Name: "Vinamilk", ImageURL: utils.ToPtr("https://cdn.example.com/v.png")})
			require.NoError(t, err)
			assert.Equal(t, []string{"https://cdn.example.com/v.png"}, brand.ImageURLs)
			assert.Equal(t, "https://cdn.example.com/v.png", brand.ThumbnailURL)

			id := uuid.MustParse(brand.ID)
			images := []string{"https://cdn.example.com/a.png", "https://cdn.example.com/v.png"}
			updated, err := flow.UpdateBrand(e.ctx, store.ID, id, &dto.UpdateBrandRequest{ImageURLs: &images})
			require.NoError(t, err)
			assert.Equal(t, "https://cdn.example.com/a.png", updated.ThumbnailURL)

			empty := []string{}
			cleared, err := flow.UpdateBrand(e.ctx, store.ID, id, &dto.UpdateBrandRequest{ImageURLs: &empty})
			require.NoError(t, err)
			assert.Empty(t, cleared.ImageURLs)
			assert.Equal(t, utils.InitialsAvatarURL("Vinamilk"), cleared.ThumbnailURL)
		})

		t.Run("DuplicateName", func(t *testing.T) {
			_, err := flow.CreateBrand(e.ctx, store.ID, &dto.CreateBrandRequest{Name: "VINAMILK"})
			requireBusinessError(t, err, http.StatusBadRequest, "Brand name already exists in this store")
		})

		t.Run("DeleteInUse", func(t *testing.T) {
			brand, err := flow.CreateBrand(e.ctx, store.ID, &dto.CreateBrandRequest{Name: "Used"})
			require.NoError(t, err)
			id := uuid.MustParse(brand.ID)
			require.NoError(t, e.products.Save(e.ctx, &models.Product{StoreID: store.ID, Name: "Thing", SellingPrice: 1, BrandID: &id}))

			err = flow.DeleteBrand(e.ctx, store.ID, id)
			requireBusinessError(t, err, http.StatusBadRequest, "Cannot delete brand that is being used by products")
		})
	})
}

package businessflow_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/app/services"
	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/cherriedy/ban-hang-so-api/models"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultProductPage = dto.PageQuery{Page: 1, Size: businessflow.DefaultProductPageSize}

func newCache(t *testing.T) (services.CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return services.NewCacheService(rc, "test", time.Minute, nil), mr
}

func TestProductFlow_CRUD(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		flow := businessflow.NewProductFlow(e.products, e.brands, e.categories, nil, nil, 0, 0, nil)
		_, store := e.ownerWithStore(t)
		_, otherStore := e.ownerWithStore(t)

		brand := &models.Brand{StoreID: store.ID, Name: "Vinamilk"}
		require.NoError(t, e.brands.Save(e.ctx, brand))
		category := &models.Category{StoreID: store.ID, Name: "Dairy"}
		require.NoError(t, e.categories.Save(e.ctx, category))
		foreignBrand := &models.Brand{StoreID: otherStore.ID, Name: "Elsewhere"}
		require.NoError(t, e.brands.Save(e.ctx, foreignBrand))

		created, err := flow.CreateProduct(e.ctx, store.ID, &dto.CreateProductRequest{
			Name:          "Fresh milk 1L",
			Barcode:       "8934673001234",
			SellingPrice:  utils.ToPtr(32000.0),
			PurchasePrice: 25000,
			StockQuantity: 10,
			Brand:         &dto.RefRequest{ID: brand.ID.String()},
			Category:      &dto.RefRequest{ID: category.ID.String()},
		})
		require.NoError(t, err)
		assert.True(t, created.Status)
		require.NotNil(t, created.Brand)
		assert.Equal(t, "Vinamilk", created.Brand.Name)
		require.NotNil(t, created.Category)
		assert.Equal(t, "Dairy", created.Category.Name)
		productID := uuid.MustParse(created.ID)

		t.Run("ForeignBrandIsNotFound", func(t *testing.T) {
			_, err := flow.CreateProduct(e.ctx, store.ID, &dto.CreateProductRequest{
				Name:         "Bad",
				SellingPrice: utils.ToPtr(1.0),
				Brand:        &dto.RefRequest{ID: foreignBrand.ID.String()},
			})
			requireBusinessError(t, err, http.StatusNotFound, "Brand not found")
		})

		t.Run("Get", func(t *testing.T) {
			got, err := flow.GetProduct(e.ctx, store.ID, productID)
			require.NoError(t, err)
			assert.Equal(t, "Fresh milk 1L", got.Name)

			_, err = flow.GetProduct(e.ctx, otherStore.ID, productID)
			requireBusinessError(t, err, http.StatusNotFound, "Product not found in the specified store")

			_, err = flow.GetProduct(e.ctx, store.ID, uuid.New())
			requireBusinessError(t, err, http.StatusNotFound, "Product not found")
		})

		t.Run("UpdateClearsBrand", func(t *testing.T) {
			req := &dto.UpdateProductRequest{SellingPrice: utils.ToPtr(30000.0)}
			req.Brand.Set = true

			updated, err := flow.UpdateProduct(e.ctx, store.ID, productID, req)
			require.NoError(t, err)
			assert.Equal(t, 30000.0, updated.SellingPrice)
			assert.Nil(t, updated.Brand)
			require.NotNil(t, updated.Category, "an absent category must be left alone")

			reloaded, err := e.products.ByID(e.ctx, productID)
			require.NoError(t, err)
			assert.Nil(t, reloaded.BrandID)
		})

		t.Run("UpdateCannotMoveStore", func(t *testing.T) {
			_, err := flow.UpdateProduct(e.ctx, store.ID, productID, &dto.UpdateProductRequest{StoreID: utils.ToPtr(otherStore.ID.String())})
			requireBusinessError(t, err, http.StatusBadRequest, "Cannot change product store")
		})

		t.Run("ListAndSort", func(t *testing.T) {
			_, err := flow.CreateProduct(e.ctx, store.ID, &dto.CreateProductRequest{Name: "Apple juice", SellingPrice: utils.ToPtr(15000.0)})
			require.NoError(t, err)

			page, err := flow.ListProducts(e.ctx, store.ID, dto.PageQuery{Page: 1, Size: 10, SortBy: "name", SortOrder: "asc"})
			require.NoError(t, err)
			assert.Equal(t, int64(2), page.Total)
			assert.Equal(t, 1, page.Pages)
			require.Len(t, page.Items, 2)
			assert.Equal(t, "Apple juice", page.Items[0].Name)
		})

		t.Run("Delete", func(t *testing.T) {
			require.NoError(t, flow.DeleteProduct(e.ctx, store.ID, productID))
			_, err := flow.GetProduct(e.ctx, store.ID, productID)
			requireBusinessError(t, err, http.StatusNotFound, "Product not found")
		})
	})
}

func TestProductFlow_SearchRanksByRelevance(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		flow := businessflow.NewProductFlow(e.products, e.brands, e.categories, nil, nil, 0, 0, nil)
		_, store := e.ownerWithStore(t)

		for _, name := range []string{"Chocolate milk", "Milk", "Bread", "Milk tea"} {
			_, err := flow.CreateProduct(e.ctx, store.ID, &dto.CreateProductRequest{Name: name, SellingPrice: utils.ToPtr(10000.0)})
			require.NoError(t, err)
		}

		page, err := flow.SearchProducts(e.ctx, store.ID, "milk", dto.PageQuery{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "Milk", page.Items[0].Name)
		assert.Equal(t, "Milk tea", page.Items[1].Name)
		assert.Equal(t, "Chocolate milk", page.Items[2].Name)

		all, err := flow.SearchProducts(e.ctx, store.ID, "  ", dto.PageQuery{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(4), all.Total)
	})
}

func TestProductFlow_CachesDefaultListing(t *testing.T) {
	withDB(t, func(t *testing.T, e *flowEnv) {
		cache, mr := newCache(t)
		flow := businessflow.NewProductFlow(e.products, e.brands, e.categories, nil, cache, time.Hour, 0, nil)
		_, store := e.ownerWithStore(t)
		key := "test:" + utils.StoreProductsKeyPrefix + ":" + store.ID.String()

		_, err := flow.CreateProduct(e.ctx, store.ID, &dto.CreateProductRequest{Name: "Water", SellingPrice: utils.ToPtr(5000.0)})
		require.NoError(t, err)

		first, err := flow.ListProducts(e.ctx, store.ID, defaultProductPage)
		require.NoError(t, err)
		require.Len(t, first.Items, 1)
		assert.True(t, mr.Exists(key))

		// a row written behind the flow's back is invisible until invalidation
		require.NoError(t, e.products.Save(e.ctx, &models.Product{StoreID: store.ID, Name: "Sneaky", SellingPrice: 1}))
		cached, err := flow.ListProducts(e.ctx, store.ID, defaultProductPage)
		require.NoError(t, err)
		assert.Len(t, cached.Items, 1)

		// other pages bypass the cache
		second, err := flow.ListProducts(e.ctx, store.ID, dto.PageQuery{Page: 1, Size: 50})
		require.NoError(t, err)
		assert.Len(t, second.Items, 2)

		flow.InvalidateStoreProducts(e.ctx, store.ID)
		assert.False(t, mr.Exists(key))

		fresh, err := flow.ListProducts(e.ctx, store.ID, defaultProductPage)
		require.NoError(t, err)
		assert.Len(t, fresh.Items, 2)
	})
}

package handler

import (
	"net/http"

	"github.com/velstadt/foodcart/internal/domain/product"
)

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Special     bool    `json:"special_status"`
	Description string  `json:"description"`
}

// listProducts returns every product available in at least one restaurant.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAvailable(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	image := p.Image
	if image != "" {
		image = h.cfg.ImageBaseURL + image
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Image:       image,
		Special:     p.Special,
		Description: p.Description,
	}
}

type bannerResponse struct {
	Title string `json:"title"`
	Src   string `json:"src"`
	Text  string `json:"text"`
}

// listBanners serves the static promo banners shown on the storefront.
func (h *Handler) listBanners(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, []bannerResponse{
		{Title: "Burger", Src: h.cfg.ImageBaseURL + "/media/burger.jpg", Text: "Tasty Burger at your door step"},
		{Title: "Spices", Src: h.cfg.ImageBaseURL + "/media/food.jpg", Text: "All Cuisines"},
		{Title: "New York", Src: h.cfg.ImageBaseURL + "/media/tasty.jpg", Text: "Food is incomplete without a tasty dessert"},
	})
}
